// Package config loads runtime settings from an optional YAML file and the
// QUADCQL_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend names a store implementation.
type Backend string

const (
	BackendBadger Backend = "badger"
	BackendSQLite Backend = "sqlite"
)

// MemoryProfile picks badger cache sizes for the keyspaces the manager opens.
type MemoryProfile string

const (
	MemoryProfileDefault MemoryProfile = "default"
	MemoryProfileLow     MemoryProfile = "low"
)

// Config is the process configuration.
type Config struct {
	Keyspace          string        `yaml:"keyspace"`
	Backend           Backend       `yaml:"backend"`
	DataDir           string        `yaml:"data_dir"`
	HTTPAddr          string        `yaml:"http_addr"`
	ReplicationFactor int           `yaml:"replication_factor"`
	ReadOnly          bool          `yaml:"read_only"`
	MemoryProfile     MemoryProfile `yaml:"memory_profile"`
	MaxOpenKeyspaces  int           `yaml:"max_open_keyspaces"`
	LoadWorkers       int           `yaml:"load_workers"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Keyspace:          "quads",
		Backend:           BackendBadger,
		DataDir:           "./data",
		HTTPAddr:          ":8080",
		ReplicationFactor: 1,
		MemoryProfile:     MemoryProfileDefault,
		MaxOpenKeyspaces:  10,
		LoadWorkers:       4,
	}
}

// Load reads path over the defaults when path is non-empty, then applies the
// environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("QUADCQL_KEYSPACE", &c.Keyspace)
	str("QUADCQL_DATA_DIR", &c.DataDir)
	str("QUADCQL_HTTP_ADDR", &c.HTTPAddr)
	if port, ok := lookup("PORT"); ok && port != "" {
		c.HTTPAddr = ":" + port
	}
	if v, ok := lookup("QUADCQL_BACKEND"); ok && v != "" {
		c.Backend = Backend(strings.ToLower(v))
	}
	if v, ok := lookup("QUADCQL_MEMORY_PROFILE"); ok && v != "" {
		c.MemoryProfile = MemoryProfile(strings.ToLower(v))
	}
	if v, ok := lookup("QUADCQL_READ_ONLY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("QUADCQL_READ_ONLY: %w", err)
		}
		c.ReadOnly = b
	}
	if err := num("QUADCQL_REPLICATION_FACTOR", &c.ReplicationFactor); err != nil {
		return err
	}
	if err := num("QUADCQL_MAX_OPEN_KEYSPACES", &c.MaxOpenKeyspaces); err != nil {
		return err
	}
	return num("QUADCQL_LOAD_WORKERS", &c.LoadWorkers)
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	if c.Keyspace == "" {
		return fmt.Errorf("keyspace cannot be empty")
	}
	for _, r := range c.Keyspace {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("keyspace %q may only contain letters, digits and underscores", c.Keyspace)
		}
	}
	switch c.Backend {
	case BackendBadger, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (want badger or sqlite)", c.Backend)
	}
	switch c.MemoryProfile {
	case MemoryProfileDefault, MemoryProfileLow:
	default:
		return fmt.Errorf("unknown memory profile %q", c.MemoryProfile)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir cannot be empty")
	}
	if c.ReplicationFactor < 1 {
		return fmt.Errorf("replication factor must be at least 1")
	}
	if c.MaxOpenKeyspaces < 1 {
		return fmt.Errorf("max open keyspaces must be at least 1")
	}
	if c.LoadWorkers < 1 {
		return fmt.Errorf("load workers must be at least 1")
	}
	return nil
}
