package cli

import (
	"fmt"
	"io"

	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Count the rows of each index table",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, done, err := openGraph(rootOpts, false)
			if err != nil {
				return err
			}
			defer done()

			counts, err := g.Stats(cmd.Context())
			if err != nil {
				return err
			}
			byName := make(map[string]int, len(counts))
			for t, n := range counts {
				byName[t.String()] = n
			}
			return newFormatter(rootOpts, cmd).Emit(byName, func(w io.Writer) error {
				for _, t := range cql.Tables {
					fmt.Fprintf(w, "%s\t%d\n", t, counts[t])
				}
				return nil
			})
		},
	}
	return cmd
}
