package cql

import (
	"fmt"
	"strings"
)

// CreateKeyspace renders the keyspace DDL with SimpleStrategy replication.
func CreateKeyspace(keyspace string, replicationFactor int) string {
	if replicationFactor < 1 {
		replicationFactor = 1
	}
	return fmt.Sprintf("CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d};",
		keyspace, replicationFactor)
}

// CreateTable renders the DDL of one index table. The leading key column is
// the partition key, the other three are clustering columns.
func CreateTable(keyspace string, t TableName) string {
	var defs []string
	for _, c := range Columns {
		defs = append(defs, c.String()+" "+c.Type().String())
	}
	k := t.KeyColumns()
	defs = append(defs, fmt.Sprintf("PRIMARY KEY ((%s), %s, %s, %s)", k[0], k[1], k[2], k[3]))
	return "CREATE TABLE IF NOT EXISTS " + t.Qualified(keyspace) + " (" + strings.Join(defs, ", ") + ");"
}

// CreateIndexes renders secondary indexes on the literal value columns.
func CreateIndexes(keyspace string, t TableName) []string {
	var out []string
	for _, c := range Columns {
		if c.IsKey() {
			continue
		}
		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_%s ON %s (%s);",
			strings.ToLower(t.String()), c, t.Qualified(keyspace), c))
	}
	return out
}

// Schema returns every statement needed to create the keyspace.
func Schema(keyspace string, replicationFactor int) []string {
	out := []string{CreateKeyspace(keyspace, replicationFactor)}
	for _, t := range Tables {
		out = append(out, CreateTable(keyspace, t))
		out = append(out, CreateIndexes(keyspace, t)...)
	}
	return out
}
