package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/duynguyendang/quadcql/pkg/rdf"
	"github.com/spf13/cobra"
)

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// Emit writes data as indented JSON, or calls text for the text format.
func (f *OutputFormatter) Emit(data any, text func(w io.Writer) error) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	return text(f.Writer)
}

// patternFlags are the four term flags shared by the pattern commands.
type patternFlags struct {
	graph, subject, predicate, object string
}

func (p *patternFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.graph, "graph", "g", "", "graph term in N-Triples syntax (ANY for wildcard)")
	cmd.Flags().StringVarP(&p.subject, "subject", "s", "", "subject term")
	cmd.Flags().StringVarP(&p.predicate, "predicate", "p", "", "predicate term")
	cmd.Flags().StringVarP(&p.object, "object", "o", "", `object term, e.g. "42"^^xsd:int`)
}

func (p *patternFlags) quad() (rdf.Quad, error) {
	q, err := rdf.ParseQuad(p.graph, p.subject, p.predicate, p.object)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("invalid pattern: %w", err)
	}
	return q, nil
}
