package cli

import (
	"fmt"
	"io"

	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/spf13/cobra"
)

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	var pf patternFlags
	var info cql.QueryInfo

	cmd := &cobra.Command{
		Use:           "find",
		Short:         "Run a quad pattern against the local store",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := pf.quad()
			if err != nil {
				return err
			}
			g, done, err := openGraph(rootOpts, false)
			if err != nil {
				return err
			}
			defer done()

			quads, err := g.FindAll(cmd.Context(), q, &info)
			if err != nil {
				return err
			}
			lines := make([]string, len(quads))
			for i, fq := range quads {
				lines[i] = fq.String()
			}
			return newFormatter(rootOpts, cmd).Emit(lines, func(w io.Writer) error {
				for _, l := range lines {
					if _, err := fmt.Fprintln(w, l); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	pf.register(cmd)
	cmd.Flags().IntVar(&info.Limit, "limit", 0, "maximum number of quads (0 for all)")
	cmd.Flags().StringVar(&info.ExtraWhere, "extra", "", "additional WHERE condition (sqlite backend only)")
	return cmd
}
