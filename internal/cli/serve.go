package cli

import (
	"log/slog"

	"github.com/duynguyendang/quadcql/internal/manager"
	"github.com/duynguyendang/quadcql/pkg/mcp"
	"github.com/duynguyendang/quadcql/pkg/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string
	var readOnly bool
	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Start the REST API server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.Config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			if readOnly {
				cfg.ReadOnly = true
			}
			mgr, err := manager.NewKeyspaceManager(cfg)
			if err != nil {
				return err
			}
			defer mgr.CloseAll()

			slog.Info("starting REST API server", "addr", cfg.HTTPAddr, "data", cfg.DataDir, "backend", cfg.Backend)
			return server.NewServer(mgr, cfg).Run(cfg.HTTPAddr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "refuse to create keyspaces")
	return cmd
}

// NewMCPCommand creates the mcp command.
func NewMCPCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mcp",
		Short:         "Serve the configured keyspace over MCP on stdio",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.Config()
			if err != nil {
				return err
			}
			g, done, err := openGraph(rootOpts, true)
			if err != nil {
				return err
			}
			defer done()
			return mcp.Run(cmd.Context(), g, cfg.ReplicationFactor)
		},
	}
	return cmd
}
