package badgerstore

import (
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Resource profiles.
const (
	ProfileIngestHeavy = "Ingest-Heavy"
	ProfileSafeServing = "Safe-Serving"
	ProfileLowMem      = "Cloud-Run-LowMem"
)

// Config holds the configuration for the badger backed table store.
type Config struct {
	// DataDir is the directory where BadgerDB will store its data.
	DataDir string

	// InMemory enables in-memory mode (useful for testing).
	InMemory bool

	// BlockCacheSize is the size of the block cache in bytes.
	BlockCacheSize int64

	// IndexCacheSize is the size of the index cache in bytes.
	IndexCacheSize int64

	// Compression enables ZSTD compression.
	Compression bool

	// SyncWrites enables synchronous writes.
	// Disabled for performance, but may lose recent writes on crash.
	SyncWrites bool

	// MemTableSize is the size of the memtable in bytes. Zero keeps badger's default.
	MemTableSize int64

	// NumMemtables is the maximum number of memtables waiting to be flushed.
	NumMemtables int

	// Profile specifies the resource profile. Defaults to Ingest-Heavy.
	Profile string

	ReadOnly        bool
	BypassLockGuard bool
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.DataDir == "" && !c.InMemory {
		return fmt.Errorf("DataDir must be specified when InMemory is false")
	}
	if c.BlockCacheSize <= 0 {
		return fmt.Errorf("BlockCacheSize must be positive, got %d", c.BlockCacheSize)
	}
	if c.IndexCacheSize <= 0 {
		return fmt.Errorf("IndexCacheSize must be positive, got %d", c.IndexCacheSize)
	}
	switch c.Profile {
	case "", ProfileIngestHeavy, ProfileSafeServing, ProfileLowMem:
	default:
		return fmt.Errorf("unknown profile %q", c.Profile)
	}
	if c.InMemory && c.ReadOnly {
		return fmt.Errorf("ReadOnly is not supported in memory")
	}
	return nil
}

// DefaultConfig returns a configuration suited to a single-node store.
func DefaultConfig(dataDir string) *Config {
	return &Config{
		DataDir:        dataDir,
		BlockCacheSize: 256 << 20,
		IndexCacheSize: 128 << 20,
		Compression:    true,
		Profile:        ProfileIngestHeavy,
	}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() *Config {
	cfg := DefaultConfig("")
	cfg.InMemory = true
	cfg.Compression = false
	return cfg
}

// buildBadgerOptions converts Config to badger.Options based on Profile.
func buildBadgerOptions(cfg *Config) badger.Options {
	if cfg.InMemory {
		opts := badger.DefaultOptions("")
		opts.InMemory = true
		opts.Logger = slogLogger{}
		return opts
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.DataDir, "badger"))
	opts.Logger = slogLogger{}

	// Batches of the four tables go through one write transaction.
	opts.DetectConflicts = false
	opts.BypassLockGuard = cfg.BypassLockGuard
	opts.BloomFalsePositive = 0.01
	opts.ReadOnly = cfg.ReadOnly

	if cfg.Compression {
		opts.Compression = options.ZSTD
	} else {
		opts.Compression = options.None
	}

	switch cfg.Profile {
	case ProfileLowMem:
		opts.ValueLogFileSize = 32 << 20
		opts.NumCompactors = 2
	case ProfileSafeServing:
		opts.ValueLogFileSize = 64 << 20
		// Badger v4 requires at least 2 compactors.
		opts.NumCompactors = 2
	default:
		opts.ValueLogFileSize = 1 << 30
		opts.NumCompactors = 4
	}

	opts.BlockCacheSize = cfg.BlockCacheSize
	opts.IndexCacheSize = cfg.IndexCacheSize
	opts.SyncWrites = cfg.SyncWrites

	if cfg.MemTableSize > 0 {
		opts.MemTableSize = cfg.MemTableSize
	}
	if cfg.NumMemtables > 0 {
		opts.NumMemtables = cfg.NumMemtables
	}
	return opts
}
