package cli

import (
	"log/slog"

	"github.com/duynguyendang/quadcql/internal/manager"
	"github.com/duynguyendang/quadcql/pkg/graph"
)

// openGraph opens the configured keyspace. create allows a missing keyspace
// to be created. done closes it again.
func openGraph(opts *RootOptions, create bool) (*graph.Graph, func(), error) {
	cfg, err := opts.Config()
	if err != nil {
		return nil, nil, err
	}
	mgr, err := manager.NewKeyspaceManager(cfg)
	if err != nil {
		return nil, nil, err
	}
	open := mgr.Graph
	if create {
		open = mgr.Create
	}
	g, err := open(cfg.Keyspace)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("keyspace opened", "keyspace", cfg.Keyspace, "backend", cfg.Backend, "dir", cfg.DataDir)
	return g, mgr.CloseAll, nil
}
