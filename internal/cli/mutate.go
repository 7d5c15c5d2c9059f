package cli

import (
	"fmt"
	"io"

	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/rdf"
	"github.com/spf13/cobra"
)

// mutationResult is the JSON output of insert and delete.
type mutationResult struct {
	Statement string `json:"statement"`
	Applied   bool   `json:"applied"`
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	return newMutationCommand(rootOpts, "insert", "Print the batch that writes a quad to all four tables", cql.BuildInsert)
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return newMutationCommand(rootOpts, "delete", "Print the batch that removes a quad from all four tables", cql.BuildDelete)
}

func newMutationCommand(rootOpts *RootOptions, use, short string, build func(string, rdf.Quad) (*cql.Batch, error)) *cobra.Command {
	var pf patternFlags
	var apply bool

	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := pf.quad()
			if err != nil {
				return err
			}
			cfg, err := rootOpts.Config()
			if err != nil {
				return err
			}
			b, err := build(cfg.Keyspace, q)
			if err != nil {
				return err
			}
			if apply {
				g, done, err := openGraph(rootOpts, true)
				if err != nil {
					return err
				}
				defer done()
				if err := g.Session().Apply(cmd.Context(), b); err != nil {
					return fmt.Errorf("%s: %w", use, err)
				}
			}
			res := mutationResult{Statement: b.String(), Applied: apply}
			return newFormatter(rootOpts, cmd).Emit(res, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, res.Statement)
				return err
			})
		},
	}
	pf.register(cmd)
	cmd.Flags().BoolVar(&apply, "apply", false, "also apply the batch to the local store")
	return cmd
}
