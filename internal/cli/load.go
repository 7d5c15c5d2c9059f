package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/duynguyendang/quadcql/pkg/graph"
	"github.com/duynguyendang/quadcql/pkg/store/cqlsession"
	"github.com/spf13/cobra"
)

// loadResult is the JSON output of load.
type loadResult struct {
	Keyspace   string   `json:"keyspace"`
	Loaded     int      `json:"loaded"`
	DryRun     bool     `json:"dry_run,omitempty"`
	Statements []string `json:"statements,omitempty"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "load <file.nq>",
		Short: "Load an N-Quads file into the local store",
		Long: `Load an N-Quads document into the configured keyspace, creating it if needed.
Quads without a graph label go to the default graph. Use "-" to read stdin.
With --dry-run the batches are printed instead of applied.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			var (
				g   *graph.Graph
				rec *cqlsession.Recorder
			)
			if dryRun {
				cfg, err := rootOpts.Config()
				if err != nil {
					return err
				}
				var w io.Writer = cmd.OutOrStdout()
				if rootOpts.Format == "json" {
					w = nil
				}
				rec = cqlsession.NewRecorder(w)
				g = graph.New(cqlsession.New(rec, nil), cfg.Keyspace, graph.WithLoadWorkers(1))
				defer g.Close()
			} else {
				opened, done, err := openGraph(rootOpts, true)
				if err != nil {
					return err
				}
				defer done()
				g = opened
			}

			n, err := g.Load(cmd.Context(), r)
			if err != nil {
				return fmt.Errorf("loaded %d quads before failing: %w", n, err)
			}
			res := loadResult{Keyspace: g.Keyspace(), Loaded: n, DryRun: dryRun}
			if rec != nil {
				res.Statements = rec.Statements()
			}
			return newFormatter(rootOpts, cmd).Emit(res, func(w io.Writer) error {
				verb := "loaded"
				if dryRun {
					verb = "would load"
				}
				_, err := fmt.Fprintf(w, "%s %d quads into %s\n", verb, n, g.Keyspace())
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the batches without touching the store")
	return cmd
}
