package cli

import (
	"fmt"
	"io"

	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/graph"
	"github.com/spf13/cobra"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	var pf patternFlags
	var info cql.QueryInfo

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the table and CQL a quad pattern runs as",
		Long: `Select the index table for a quad pattern and print the find query.

When the selected table leaves an unbound key column in front of a bound one,
the cascading key enumeration is printed too: the pattern then runs as one
query per combination of stored values for the unbound columns.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, &pf, &info, cmd)
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&info.ExtraWhere, "extra", "", "additional WHERE condition")
	cmd.Flags().StringVar(&info.Suffix, "suffix", "", "text appended after the WHERE clause")
	cmd.Flags().IntVar(&info.Limit, "limit", 0, "LIMIT clause (0 for none)")
	return cmd
}

func runPlan(opts *RootOptions, pf *patternFlags, info *cql.QueryInfo, cmd *cobra.Command) error {
	q, err := pf.quad()
	if err != nil {
		return err
	}
	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	plan, err := graph.Explain(cfg.Keyspace, q, info)
	if err != nil {
		return err
	}
	return newFormatter(opts, cmd).Emit(plan, func(w io.Writer) error {
		fmt.Fprintf(w, "table: %s\n", plan.Table)
		fmt.Fprintf(w, "query: %s\n", plan.Query)
		if plan.HasGaps {
			fmt.Fprintln(w, "cascade:")
			for _, lv := range plan.Cascade {
				if lv.Bound {
					fmt.Fprintf(w, "  %s = %s\n", lv.Column, lv.Value)
				} else {
					fmt.Fprintf(w, "  %s = <each distinct value>\n", lv.Column)
				}
			}
		}
		return nil
	})
}
