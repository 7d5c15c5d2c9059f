package cli

import (
	"io"

	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/store/cqlsession"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	var rf int
	cmd := &cobra.Command{
		Use:           "schema",
		Short:         "Print the keyspace, table and index DDL",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.Config()
			if err != nil {
				return err
			}
			if rf == 0 {
				rf = cfg.ReplicationFactor
			}
			stmts := cql.Schema(cfg.Keyspace, rf)
			return newFormatter(rootOpts, cmd).Emit(stmts, func(w io.Writer) error {
				session := cqlsession.New(cqlsession.NewRecorder(w), nil)
				defer session.Close()
				return session.ExecSchema(cmd.Context(), stmts)
			})
		},
	}
	cmd.Flags().IntVar(&rf, "replication", 0, "replication factor (defaults to config)")
	return cmd
}
