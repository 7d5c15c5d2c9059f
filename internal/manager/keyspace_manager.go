package manager

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/duynguyendang/quadcql/pkg/common/errors"
	"github.com/duynguyendang/quadcql/pkg/config"
	"github.com/duynguyendang/quadcql/pkg/graph"
	"github.com/duynguyendang/quadcql/pkg/store"
	"github.com/duynguyendang/quadcql/pkg/store/badgerstore"
	"github.com/duynguyendang/quadcql/pkg/store/sqlitestore"
	lru "github.com/hashicorp/golang-lru/v2"
)

// KeyspaceListTTL bounds how stale ListKeyspaces may be.
const KeyspaceListTTL = 1 * time.Minute

// sqliteFile is the database file inside a sqlite keyspace directory.
const sqliteFile = "quads.db"

// KeyspaceMetadata is what the API exposes about a keyspace.
type KeyspaceMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Backend     string `json:"backend"`
}

// KeyspaceManager keeps the most recently used keyspace graphs open. Each
// keyspace is a directory under the data dir.
type KeyspaceManager struct {
	cfg           *config.Config
	graphs        *lru.Cache[string, *graph.Graph]
	mu            sync.RWMutex
	cachedList    []KeyspaceMetadata
	lastListBuild time.Time
}

// NewKeyspaceManager creates a manager over cfg.DataDir. Evicted graphs are
// closed.
func NewKeyspaceManager(cfg *config.Config) (*KeyspaceManager, error) {
	cache, err := lru.NewWithEvict[string, *graph.Graph](cfg.MaxOpenKeyspaces, func(name string, g *graph.Graph) {
		if err := g.Close(); err != nil {
			slog.Warn("closing evicted keyspace", "keyspace", name, "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("keyspace cache: %w", err)
	}
	return &KeyspaceManager{cfg: cfg, graphs: cache}, nil
}

// Graph returns the graph of an existing keyspace, opening it if necessary.
func (m *KeyspaceManager) Graph(keyspace string) (*graph.Graph, error) {
	return m.open(keyspace, false)
}

// Create opens keyspace, creating its directory when missing.
func (m *KeyspaceManager) Create(keyspace string) (*graph.Graph, error) {
	if m.cfg.ReadOnly {
		return nil, fmt.Errorf("%w: manager is read-only", apperrors.ErrInvalidInput)
	}
	return m.open(keyspace, true)
}

func (m *KeyspaceManager) open(keyspace string, create bool) (*graph.Graph, error) {
	if g, ok := m.graphs.Get(keyspace); ok {
		return g, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.graphs.Get(keyspace); ok {
		return g, nil
	}

	candidate := *m.cfg
	candidate.Keyspace = keyspace
	if err := candidate.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	dir := filepath.Join(m.cfg.DataDir, keyspace)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if !create {
			return nil, fmt.Errorf("%w: keyspace %s", apperrors.ErrNotFound, keyspace)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create keyspace dir: %w", err)
		}
		m.lastListBuild = time.Time{}
	}

	s, err := m.openSession(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyspace %s: %w", keyspace, err)
	}
	g := graph.New(s, keyspace, graph.WithLoadWorkers(m.cfg.LoadWorkers))
	m.graphs.Add(keyspace, g)
	return g, nil
}

func (m *KeyspaceManager) openSession(dir string) (store.Session, error) {
	if m.cfg.Backend == config.BackendSQLite {
		return sqlitestore.Open(filepath.Join(dir, sqliteFile))
	}
	bc := badgerstore.DefaultConfig(dir)
	bc.ReadOnly = m.cfg.ReadOnly
	bc.BypassLockGuard = true
	if m.cfg.MemoryProfile == config.MemoryProfileLow {
		bc.BlockCacheSize = 64 << 20
		bc.IndexCacheSize = 64 << 20
		bc.Profile = badgerstore.ProfileLowMem
	} else {
		bc.BlockCacheSize = 128 << 20
		bc.IndexCacheSize = 128 << 20
		bc.Profile = badgerstore.ProfileSafeServing
	}
	return badgerstore.Open(bc)
}

// ListKeyspaces returns the keyspaces found under the data dir. A keyspace
// may describe itself in metadata.json.
func (m *KeyspaceManager) ListKeyspaces() ([]KeyspaceMetadata, error) {
	m.mu.RLock()
	if time.Since(m.lastListBuild) < KeyspaceListTTL && m.cachedList != nil {
		list := append([]KeyspaceMetadata(nil), m.cachedList...)
		m.mu.RUnlock()
		return list, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastListBuild) < KeyspaceListTTL && m.cachedList != nil {
		return append([]KeyspaceMetadata(nil), m.cachedList...), nil
	}

	entries, err := os.ReadDir(m.cfg.DataDir)
	if os.IsNotExist(err) {
		return []KeyspaceMetadata{}, nil
	}
	if err != nil {
		return nil, err
	}

	list := []KeyspaceMetadata{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta := KeyspaceMetadata{Name: entry.Name(), Backend: string(m.cfg.Backend)}
		if data, err := os.ReadFile(filepath.Join(m.cfg.DataDir, entry.Name(), "metadata.json")); err == nil {
			var fromFile KeyspaceMetadata
			if err := json.Unmarshal(data, &fromFile); err == nil {
				meta.Description = fromFile.Description
			}
		}
		list = append(list, meta)
	}

	m.cachedList = list
	m.lastListBuild = time.Now()
	return append([]KeyspaceMetadata(nil), list...), nil
}

// Len is the number of open keyspaces.
func (m *KeyspaceManager) Len() int {
	return m.graphs.Len()
}

// CloseAll closes every open keyspace.
func (m *KeyspaceManager) CloseAll() {
	m.graphs.Purge()
}
