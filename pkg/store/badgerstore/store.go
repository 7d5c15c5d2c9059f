// Package badgerstore keeps the four index tables in one badger database,
// one key range per table.
package badgerstore

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/store"
	"github.com/shopspring/decimal"
)

// Store is a store.Session over badger.
type Store struct {
	db     *badger.DB
	cfg    *Config
	closed atomic.Bool
}

// Open validates cfg and opens the database.
func Open(cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid badger config: %w", err)
	}
	db, err := badger.Open(buildBadgerOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", cfg.DataDir, err)
	}
	slog.Info("badger store opened", "dir", cfg.DataDir, "in_memory", cfg.InMemory, "profile", cfg.Profile, "read_only", cfg.ReadOnly)
	return &Store{db: db, cfg: cfg}, nil
}

// Close closes the database. Further calls are no-ops.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	slog.Info("badger store closed", "dir", s.cfg.DataDir)
	return s.db.Close()
}

// selectPlan is a Select translated to a key range plus row filters.
type selectPlan struct {
	table  cql.TableName
	prefix []byte
	keyEq  map[cql.ColumnName][]byte
	lang   *string
	dtype  *string
	index  *decimal.Decimal
	limit  int
}

func planSelect(sel *cql.Select) (*selectPlan, error) {
	if sel.Distinct {
		return nil, fmt.Errorf("%w: DISTINCT outside DistinctValues", store.ErrUnsupportedPredicate)
	}
	p := &selectPlan{table: sel.Table, keyEq: map[cql.ColumnName][]byte{}, limit: sel.Limit}
	for _, pred := range sel.Where {
		switch pred.Op {
		case cql.OpScan:
			continue
		case cql.OpRaw:
			return nil, fmt.Errorf("%w: %q", store.ErrUnsupportedPredicate, pred.Expr)
		}
		switch pred.Column {
		case cql.ColLang, cql.ColDatatype:
			v, ok := pred.Value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s expects text", store.ErrUnsupportedPredicate, pred.Column)
			}
			if pred.Column == cql.ColLang {
				p.lang = &v
			} else {
				p.dtype = &v
			}
		case cql.ColIndex:
			d, ok := pred.Value.(decimal.Decimal)
			if !ok {
				return nil, fmt.Errorf("%w: idx expects a decimal", store.ErrUnsupportedPredicate)
			}
			p.index = &d
		default:
			v, ok := pred.Value.([]byte)
			if !ok {
				return nil, fmt.Errorf("%w: %s expects a blob", store.ErrUnsupportedPredicate, pred.Column)
			}
			p.keyEq[pred.Column] = v
		}
	}
	var leading [][]byte
	for _, c := range sel.Table.KeyColumns() {
		v, ok := p.keyEq[c]
		if !ok {
			break
		}
		leading = append(leading, v)
	}
	p.prefix = encodePrefix(sel.Table, leading...)
	return p, nil
}

func (p *selectPlan) match(keys cql.KeyValues, val rowValue) bool {
	for c, v := range p.keyEq {
		if !bytes.Equal(keys[c], v) {
			return false
		}
	}
	if p.lang != nil && val.Lang != *p.lang {
		return false
	}
	if p.dtype != nil && val.Datatype != *p.dtype {
		return false
	}
	if p.index != nil {
		d, err := decimal.NewFromString(val.Index)
		if err != nil || !d.Equal(*p.index) {
			return false
		}
	}
	return true
}

// Select scans the selected table over the bound key prefix.
func (s *Store) Select(ctx context.Context, sel *cql.Select) iter.Seq2[cql.Row, error] {
	return func(yield func(cql.Row, error) bool) {
		if s.closed.Load() {
			yield(cql.Row{}, store.ErrClosed)
			return
		}
		plan, err := planSelect(sel)
		if err != nil {
			yield(cql.Row{}, err)
			return
		}

		txn := s.db.NewTransaction(false)
		defer txn.Discard()

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		emitted := 0
		for it.Seek(plan.prefix); it.ValidForPrefix(plan.prefix); it.Next() {
			select {
			case <-ctx.Done():
				yield(cql.Row{}, ctx.Err())
				return
			default:
			}

			item := it.Item()
			keys, err := decodeKey(plan.table, item.KeyCopy(nil))
			if err != nil {
				yield(cql.Row{}, err)
				return
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				yield(cql.Row{}, fmt.Errorf("failed to read row value: %w", err))
				return
			}
			val, err := decodeRowValue(raw)
			if err != nil {
				yield(cql.Row{}, err)
				return
			}
			if !plan.match(keys, val) {
				continue
			}
			row := cql.Row{
				Subject:   keys[cql.ColSubject],
				Predicate: keys[cql.ColPredicate],
				Object:    keys[cql.ColObject],
				Graph:     keys[cql.ColGraph],
				Lang:      val.Lang,
				Datatype:  val.Datatype,
			}
			if !yield(row, nil) {
				return
			}
			emitted++
			if plan.limit > 0 && emitted >= plan.limit {
				return
			}
		}
	}
}

// DistinctValues walks the distinct values of q.Column under the prefix,
// seeking past each value's rows instead of visiting them.
func (s *Store) DistinctValues(ctx context.Context, q cql.DistinctQuery) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if s.closed.Load() {
			yield(nil, store.ErrClosed)
			return
		}
		cols := q.Table.KeyColumns()
		pos := len(q.Prefix)
		if pos >= len(cols) || cols[pos] != q.Column {
			yield(nil, fmt.Errorf("%w: %s is not key column %d of %s", store.ErrUnsupportedPredicate, q.Column, pos, q.Table))
			return
		}
		leading := make([][]byte, 0, pos)
		for i, pred := range q.Prefix {
			v, ok := pred.Value.([]byte)
			if pred.Op != cql.OpEq || pred.Column != cols[i] || !ok {
				yield(nil, fmt.Errorf("%w: distinct prefix %s", store.ErrUnsupportedPredicate, pred))
				return
			}
			leading = append(leading, v)
		}
		prefix := encodePrefix(q.Table, leading...)

		txn := s.db.NewTransaction(false)
		defer txn.Discard()

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // keys only
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); {
			select {
			case <-ctx.Done():
				yield(nil, ctx.Err())
				return
			default:
			}
			v, through, err := component(it.Item().Key(), pos)
			if err != nil {
				yield(nil, err)
				return
			}
			next := prefixEnd(through)
			if !yield(bytes.Clone(v), nil) {
				return
			}
			it.Seek(next)
		}
	}
}

// Apply writes every statement of b in one transaction.
func (s *Store) Apply(ctx context.Context, b *cql.Batch) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.withWriteTxn(func(txn *badger.Txn) error {
		for _, m := range b.Statements {
			switch st := m.(type) {
			case *cql.Insert:
				key, val, err := insertEntry(st)
				if err != nil {
					return err
				}
				if err := txn.Set(key, val); err != nil {
					return fmt.Errorf("insert into %s: %w", st.Table, err)
				}
			case *cql.Delete:
				key, err := deleteKey(st)
				if err != nil {
					return err
				}
				if err := txn.Delete(key); err != nil {
					return fmt.Errorf("delete from %s: %w", st.Table, err)
				}
			default:
				return fmt.Errorf("%w: statement %T", store.ErrUnsupportedPredicate, m)
			}
		}
		return nil
	})
}

func (s *Store) withWriteTxn(fn func(*badger.Txn) error) error {
	txn := s.db.NewTransaction(true)
	defer txn.Discard()
	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}

func insertEntry(st *cql.Insert) ([]byte, []byte, error) {
	var keys cql.KeyValues
	var val rowValue
	for i, c := range st.Columns {
		v := st.Values[i]
		switch c {
		case cql.ColLang:
			val.Lang, _ = v.(string)
		case cql.ColDatatype:
			val.Datatype, _ = v.(string)
		case cql.ColIndex:
			if d, ok := v.(decimal.Decimal); ok {
				val.Index = d.String()
			}
		default:
			b, ok := v.([]byte)
			if !ok {
				return nil, nil, fmt.Errorf("insert into %s: %s is not a blob", st.Table, c)
			}
			keys[c] = b
		}
	}
	for _, c := range cql.KeyColumns {
		if keys[c] == nil {
			return nil, nil, fmt.Errorf("insert into %s: missing key column %s", st.Table, c)
		}
	}
	return encodeKey(st.Table, keys), val.encode(), nil
}

func deleteKey(st *cql.Delete) ([]byte, error) {
	var keys cql.KeyValues
	for _, pred := range st.Where {
		b, ok := pred.Value.([]byte)
		if pred.Op != cql.OpEq || !pred.Column.IsKey() || !ok {
			return nil, fmt.Errorf("%w: delete predicate %s", store.ErrUnsupportedPredicate, pred)
		}
		keys[pred.Column] = b
	}
	for _, c := range cql.KeyColumns {
		if keys[c] == nil {
			return nil, fmt.Errorf("delete from %s: missing key column %s", st.Table, c)
		}
	}
	return encodeKey(st.Table, keys), nil
}

// Count returns the number of rows in table t.
func (s *Store) Count(ctx context.Context, t cql.TableName) (int, error) {
	prefix := []byte{tablePrefix(t)}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}
