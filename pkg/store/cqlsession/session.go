// Package cqlsession runs the generated statements as CQL text through a
// driver-agnostic Querier.
package cqlsession

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"

	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/store"
)

// Scanner copies the columns of the current row into dest.
type Scanner interface {
	Scan(dest ...any) error
}

// Querier is the narrow slice of a CQL driver the session needs.
type Querier interface {
	Exec(ctx context.Context, stmt string) error
	Query(ctx context.Context, stmt string) iter.Seq2[Scanner, error]
}

// Session implements store.Session by rendering every statement.
type Session struct {
	q      Querier
	closer func() error
	closed atomic.Bool
}

var _ store.Session = (*Session)(nil)

// New wraps q. closer, if non-nil, runs on Close.
func New(q Querier, closer func() error) *Session {
	return &Session{q: q, closer: closer}
}

func (s *Session) Select(ctx context.Context, sel *cql.Select) iter.Seq2[cql.Row, error] {
	return func(yield func(cql.Row, error) bool) {
		if s.closed.Load() {
			yield(cql.Row{}, store.ErrClosed)
			return
		}
		stmt := sel.String()
		slog.Debug("cql select", "stmt", stmt)
		for sc, err := range s.q.Query(ctx, stmt) {
			if err != nil {
				yield(cql.Row{}, err)
				return
			}
			r, err := scanRow(sc, sel.Columns)
			if !yield(r, err) || err != nil {
				return
			}
		}
	}
}

func scanRow(sc Scanner, cols []cql.ColumnName) (cql.Row, error) {
	var r cql.Row
	dest := make([]any, len(cols))
	for i, c := range cols {
		switch c {
		case cql.ColSubject:
			dest[i] = &r.Subject
		case cql.ColPredicate:
			dest[i] = &r.Predicate
		case cql.ColObject:
			dest[i] = &r.Object
		case cql.ColGraph:
			dest[i] = &r.Graph
		case cql.ColLang:
			dest[i] = &r.Lang
		case cql.ColDatatype:
			dest[i] = &r.Datatype
		default:
			return r, fmt.Errorf("column %s cannot be scanned into a row", c)
		}
	}
	if err := sc.Scan(dest...); err != nil {
		return r, fmt.Errorf("scan row: %w", err)
	}
	return r, nil
}

func (s *Session) DistinctValues(ctx context.Context, q cql.DistinctQuery) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if s.closed.Load() {
			yield(nil, store.ErrClosed)
			return
		}
		for sc, err := range s.q.Query(ctx, q.String()) {
			if err != nil {
				yield(nil, err)
				return
			}
			var v []byte
			if err := sc.Scan(&v); err != nil {
				yield(nil, fmt.Errorf("scan %s: %w", q.Column, err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Apply executes the batch as one BEGIN BATCH statement.
func (s *Session) Apply(ctx context.Context, b *cql.Batch) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	if len(b.Statements) == 0 {
		return nil
	}
	if err := s.q.Exec(ctx, b.String()); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	return nil
}

// ExecSchema runs each DDL statement in order.
func (s *Session) ExecSchema(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if err := s.q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.closer != nil {
		return s.closer()
	}
	return nil
}
