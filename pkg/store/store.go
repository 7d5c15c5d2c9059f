// Package store defines the backing-store contract the quad graph runs on.
// Implementations live in the subpackages: badgerstore emulates the four
// column-family tables on an embedded key-value store, sqlitestore keeps them
// as relational tables and cqlsession renders statements for a CQL engine.
package store

import (
	"context"
	"fmt"
	"iter"

	"github.com/duynguyendang/quadcql/pkg/cql"
)

var (
	ErrUnsupportedPredicate = fmt.Errorf("predicate not supported by backend")
	ErrClosed               = fmt.Errorf("store closed")
)

// Session executes the statements produced by the cql package against one
// keyspace.
type Session interface {
	cql.DistinctSource
	Select(ctx context.Context, s *cql.Select) iter.Seq2[cql.Row, error]
	Apply(ctx context.Context, b *cql.Batch) error
	Close() error
}

// Counter is implemented by sessions that can count table rows.
type Counter interface {
	Count(ctx context.Context, t cql.TableName) (int, error)
}
