package main

import (
	"github.com/duynguyendang/quadcql/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cli.Execute()
}
