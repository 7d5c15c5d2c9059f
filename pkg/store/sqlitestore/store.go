// Package sqlitestore keeps the four index tables as SQLite tables with the
// same primary keys as their column-family counterparts.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/store"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Store is a store.Session over one SQLite database per keyspace.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path and creates the tables.
//
// SQLite allows one writer, so the pool holds a single connection. Reads are
// drained before rows are yielded, which keeps nested queries from waiting on
// that connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	for _, t := range cql.Tables {
		if _, err := db.Exec(createTable(t)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create table %s: %w", t, err)
		}
	}
	slog.Info("sqlite store opened", "path", path)
	return &Store{db: db, path: path}, nil
}

// createTable mirrors cql.CreateTable with SQLite types.
func createTable(t cql.TableName) string {
	k := t.KeyColumns()
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	subject BLOB NOT NULL,
	predicate BLOB NOT NULL,
	object BLOB NOT NULL,
	graph BLOB NOT NULL,
	lang TEXT NOT NULL DEFAULT '',
	dtype TEXT NOT NULL DEFAULT '',
	idx TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (%s, %s, %s, %s)
) WITHOUT ROWID`, t, k[0], k[1], k[2], k[3])
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func where(b sq.SelectBuilder, preds []cql.Predicate) (sq.SelectBuilder, error) {
	for _, p := range preds {
		switch p.Op {
		case cql.OpScan:
			// Every row of the table is in range.
		case cql.OpRaw:
			b = b.Where(sq.Expr(p.Expr))
		default:
			v, err := sqlValue(p.Column, p.Value)
			if err != nil {
				return b, err
			}
			b = b.Where(sq.Eq{p.Column.String(): v})
		}
	}
	return b, nil
}

func sqlValue(c cql.ColumnName, v any) (any, error) {
	switch c.Type() {
	case cql.TypeDecimal:
		if d, ok := v.(decimal.Decimal); ok {
			return d.String(), nil
		}
	case cql.TypeText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	default:
		if b, ok := v.([]byte); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %T for %s column %s", store.ErrUnsupportedPredicate, v, c.Type(), c)
}

// Select runs sel against the matching table.
func (s *Store) Select(ctx context.Context, sel *cql.Select) iter.Seq2[cql.Row, error] {
	return func(yield func(cql.Row, error) bool) {
		b := psql.Select("subject", "predicate", "object", "graph", "lang", "dtype").From(sel.Table.String())
		b, err := where(b, sel.Where)
		if err != nil {
			yield(cql.Row{}, err)
			return
		}
		k := sel.Table.KeyColumns()
		b = b.OrderBy(k[0].String(), k[1].String(), k[2].String(), k[3].String())
		if sel.Limit > 0 {
			b = b.Limit(uint64(sel.Limit))
		}
		query, args, err := b.ToSql()
		if err != nil {
			yield(cql.Row{}, fmt.Errorf("failed to build select: %w", err))
			return
		}
		out, err := s.queryRows(ctx, query, args)
		if err != nil {
			yield(cql.Row{}, err)
			return
		}
		for _, r := range out {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (s *Store) queryRows(ctx context.Context, query string, args []any) ([]cql.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var out []cql.Row
	for rows.Next() {
		var r cql.Row
		if err := rows.Scan(&r.Subject, &r.Predicate, &r.Object, &r.Graph, &r.Lang, &r.Datatype); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DistinctValues lists the distinct values of q.Column under the prefix.
func (s *Store) DistinctValues(ctx context.Context, q cql.DistinctQuery) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		col := q.Column.String()
		b := psql.Select(col).Distinct().From(q.Table.String()).OrderBy(col)
		b, err := where(b, q.Prefix)
		if err != nil {
			yield(nil, err)
			return
		}
		query, args, err := b.ToSql()
		if err != nil {
			yield(nil, fmt.Errorf("failed to build distinct query: %w", err))
			return
		}
		values, err := s.queryValues(ctx, query, args)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, v := range values {
			if !yield(v, nil) {
				return
			}
		}
	}
}

func (s *Store) queryValues(ctx context.Context, query string, args []any) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Apply runs every statement of b in one transaction.
func (s *Store) Apply(ctx context.Context, b *cql.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range b.Statements {
		query, args, err := mutationSQL(m)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to apply %s mutation: %w", m.Target(), err)
		}
	}
	return tx.Commit()
}

func mutationSQL(m cql.Mutation) (string, []any, error) {
	switch st := m.(type) {
	case *cql.Insert:
		cols := make([]string, len(st.Columns))
		vals := make([]any, len(st.Values))
		for i, c := range st.Columns {
			v, err := sqlValue(c, st.Values[i])
			if err != nil {
				return "", nil, err
			}
			cols[i], vals[i] = c.String(), v
		}
		return psql.Replace(st.Table.String()).Columns(cols...).Values(vals...).ToSql()
	case *cql.Delete:
		eq := sq.Eq{}
		for _, p := range st.Where {
			v, err := sqlValue(p.Column, p.Value)
			if p.Op != cql.OpEq || err != nil {
				return "", nil, fmt.Errorf("%w: delete predicate %s", store.ErrUnsupportedPredicate, p)
			}
			eq[p.Column.String()] = v
		}
		return psql.Delete(st.Table.String()).Where(eq).ToSql()
	default:
		return "", nil, fmt.Errorf("%w: statement %T", store.ErrUnsupportedPredicate, m)
	}
}

// Count returns the number of rows in table t.
func (s *Store) Count(ctx context.Context, t cql.TableName) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From(t.String()).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t, err)
	}
	return n, nil
}
