package graph

import (
	"context"
	"fmt"

	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/rdf"
)

// Query is a fluent builder over Find. Positions left unset are wildcards.
type Query struct {
	g       *Graph
	pattern rdf.Quad
	info    cql.QueryInfo
	err     error
}

// Query starts a builder.
func (g *Graph) Query() *Query {
	return &Query{g: g, pattern: rdf.NewQuad(nil, nil, nil, nil)}
}

// Graph binds the graph position.
func (q *Query) Graph(n rdf.Node) *Query {
	q.pattern.Graph = orAny(n)
	return q
}

// Subject binds the subject position.
func (q *Query) Subject(n rdf.Node) *Query {
	q.pattern.Subject = orAny(n)
	return q
}

// Predicate binds the predicate position.
func (q *Query) Predicate(n rdf.Node) *Query {
	q.pattern.Predicate = orAny(n)
	return q
}

// Object binds the object position.
func (q *Query) Object(n rdf.Node) *Query {
	q.pattern.Object = orAny(n)
	return q
}

// Term binds a position from its N-Triples text. Parse errors surface from
// Execute.
func (q *Query) Term(col cql.ColumnName, text string) *Query {
	n, err := rdf.ParseTerm(text)
	if err != nil {
		q.err = err
		return q
	}
	switch col {
	case cql.ColGraph:
		return q.Graph(n)
	case cql.ColSubject:
		return q.Subject(n)
	case cql.ColPredicate:
		return q.Predicate(n)
	case cql.ColObject:
		return q.Object(n)
	}
	q.err = fmt.Errorf("%s is not a quad position", col)
	return q
}

// Where appends a raw condition to the generated WHERE clause. Only text
// backends understand it.
func (q *Query) Where(expr string) *Query {
	if q.info.ExtraWhere != "" {
		q.info.ExtraWhere += " AND "
	}
	q.info.ExtraWhere += expr
	return q
}

// Suffix appends text after the WHERE clause, for example ALLOW FILTERING.
func (q *Query) Suffix(s string) *Query {
	q.info.Suffix = s
	return q
}

// Limit caps the number of results. Zero means no limit.
func (q *Query) Limit(n int) *Query {
	q.info.Limit = n
	return q
}

// Plan returns the query pattern without running it.
func (q *Query) Plan() (*cql.QueryPattern, error) {
	if q.err != nil {
		return nil, q.err
	}
	return cql.NewQueryPattern(q.pattern)
}

// Execute runs the query and collects the results.
func (q *Query) Execute(ctx context.Context) ([]rdf.Quad, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.g.FindAll(ctx, q.pattern, &q.info)
}

func orAny(n rdf.Node) rdf.Node {
	if n == nil {
		return rdf.Any
	}
	return n
}
