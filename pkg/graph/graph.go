// Package graph runs quad patterns end to end: it plans them with the cql
// package, executes the statements on a store.Session and decodes the rows
// back into quads.
package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync/atomic"

	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/rdf"
	"github.com/duynguyendang/quadcql/pkg/store"
	"golang.org/x/sync/errgroup"
)

// Graph is a quad graph stored in one keyspace.
type Graph struct {
	session  store.Session
	keyspace string
	workers  int
}

// Option configures a Graph.
type Option func(*Graph)

// WithLoadWorkers bounds the number of batches Load applies concurrently.
func WithLoadWorkers(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.workers = n
		}
	}
}

// New returns a graph over session. The graph owns the session.
func New(session store.Session, keyspace string, opts ...Option) *Graph {
	g := &Graph{session: session, keyspace: keyspace, workers: 4}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Keyspace returns the keyspace the graph writes to.
func (g *Graph) Keyspace() string { return g.keyspace }

// Session exposes the underlying store session.
func (g *Graph) Session() store.Session { return g.session }

// Close closes the session.
func (g *Graph) Close() error {
	return g.session.Close()
}

// Find yields every stored quad matching pattern. Patterns whose selected
// table has an unbound key column in front of a bound one run one select per
// combination of the cascading key enumerator. info.Limit caps the total.
func (g *Graph) Find(ctx context.Context, pattern rdf.Quad, info *cql.QueryInfo) iter.Seq2[rdf.Quad, error] {
	return func(yield func(rdf.Quad, error) bool) {
		qp, err := cql.NewQueryPattern(pattern)
		if err != nil {
			yield(rdf.Quad{}, err)
			return
		}
		limit := 0
		if info != nil {
			limit = info.Limit
		}
		found := 0

		// run returns false once the caller stopped or the limit is reached.
		run := func(sel *cql.Select) bool {
			if limit > 0 {
				sel.Limit = limit - found
			}
			for row, err := range g.session.Select(ctx, sel) {
				if err != nil {
					yield(rdf.Quad{}, err)
					return false
				}
				q, err := row.Quad()
				if err != nil {
					yield(rdf.Quad{}, fmt.Errorf("decode row from %s: %w", sel.Table, err))
					return false
				}
				if !pattern.Matches(q) {
					continue
				}
				found++
				if !yield(q, nil) {
					return false
				}
				if limit > 0 && found >= limit {
					return false
				}
			}
			return true
		}

		if !qp.HasGaps() {
			run(qp.FindSelect(g.keyspace, info))
			return
		}

		slog.Debug("cascading find", "table", qp.Table(), "pattern", pattern.String())
		e := cql.NewKeyEnumerator(ctx, g.session, g.keyspace, qp.Table(), qp.KeyValues())
		for combo, err := range e.All() {
			if err != nil {
				slog.Error("key enumeration failed", "table", qp.Table(), "error", err)
				yield(rdf.Quad{}, err)
				return
			}
			if !run(qp.ComboSelect(g.keyspace, combo, info)) {
				return
			}
		}
	}
}

// FindAll collects Find into a slice.
func (g *Graph) FindAll(ctx context.Context, pattern rdf.Quad, info *cql.QueryInfo) ([]rdf.Quad, error) {
	var out []rdf.Quad
	for q, err := range g.Find(ctx, pattern, info) {
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// Add writes q to all four tables.
func (g *Graph) Add(ctx context.Context, q rdf.Quad) error {
	b, err := cql.BuildInsert(g.keyspace, q)
	if err != nil {
		return err
	}
	return g.session.Apply(ctx, b)
}

// Remove deletes the concrete quad q if it is stored and reports whether it
// was.
func (g *Graph) Remove(ctx context.Context, q rdf.Quad) (bool, error) {
	ok, err := g.Contains(ctx, q)
	if err != nil || !ok {
		return false, err
	}
	return true, g.Delete(ctx, q)
}

// Delete removes q from all four tables.
func (g *Graph) Delete(ctx context.Context, q rdf.Quad) error {
	b, err := cql.BuildDelete(g.keyspace, q)
	if err != nil {
		return err
	}
	return g.session.Apply(ctx, b)
}

// DeleteMatching removes every quad matching pattern and returns how many
// were removed.
func (g *Graph) DeleteMatching(ctx context.Context, pattern rdf.Quad) (int, error) {
	quads, err := g.FindAll(ctx, pattern, nil)
	if err != nil {
		return 0, err
	}
	for i, q := range quads {
		if err := g.Delete(ctx, q); err != nil {
			return i, err
		}
	}
	return len(quads), nil
}

// Contains reports whether the concrete quad q is stored exactly as given.
// Find matches numeric objects by value, so rows are compared term by term.
func (g *Graph) Contains(ctx context.Context, q rdf.Quad) (bool, error) {
	if !q.IsConcrete() {
		return false, fmt.Errorf("%w: %s", cql.ErrWildcardInMutation, q)
	}
	for found, err := range g.Find(ctx, q, nil) {
		if err != nil {
			return false, err
		}
		if q.Equal(found) {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of quads matching pattern. The all-wildcard
// pattern is answered by the session directly when it can count.
func (g *Graph) Count(ctx context.Context, pattern rdf.Quad) (int, error) {
	if c, ok := g.session.(store.Counter); ok && isWildcard(pattern) {
		return c.Count(ctx, cql.GSPO)
	}
	n := 0
	for _, err := range g.Find(ctx, pattern, nil) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

func isWildcard(q rdf.Quad) bool {
	return !rdf.IsConcrete(q.Graph) && !rdf.IsConcrete(q.Subject) &&
		!rdf.IsConcrete(q.Predicate) && !rdf.IsConcrete(q.Object)
}

// Stats counts the rows of every table in parallel. The four numbers differ
// only when a batch was applied partially.
func (g *Graph) Stats(ctx context.Context) (map[cql.TableName]int, error) {
	c, ok := g.session.(store.Counter)
	if !ok {
		return nil, fmt.Errorf("session %T cannot count rows", g.session)
	}
	counts := make([]int, len(cql.Tables))
	eg, ectx := errgroup.WithContext(ctx)
	for i, t := range cql.Tables {
		eg.Go(func() error {
			n, err := c.Count(ectx, t)
			counts[i] = n
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	out := make(map[cql.TableName]int, len(counts))
	for i, t := range cql.Tables {
		out[t] = counts[i]
	}
	return out, nil
}

// Load reads N-Quads from r and adds every quad, applying up to the
// configured number of batches at once. It returns the number of quads added.
// A syntax error stops the load after the quads before it are written.
func (g *Graph) Load(ctx context.Context, r io.Reader) (int, error) {
	var loaded atomic.Int64
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	var parseErr error
	for q, err := range rdf.DecodeNQuads(r) {
		if err != nil {
			parseErr = err
			break
		}
		if ectx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := g.Add(ectx, q); err != nil {
				return fmt.Errorf("add %s: %w", q, err)
			}
			loaded.Add(1)
			return nil
		})
	}
	err := errors.Join(eg.Wait(), parseErr)
	n := int(loaded.Load())
	if err != nil {
		slog.Error("load failed", "keyspace", g.keyspace, "loaded", n, "error", err)
		return n, err
	}
	slog.Info("load finished", "keyspace", g.keyspace, "loaded", n)
	return n, nil
}
