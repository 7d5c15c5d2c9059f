package cql

import (
	"context"
	"iter"
)

// DistinctQuery asks for the distinct values of one key column, scoped by
// equality predicates on the columns before it.
type DistinctQuery struct {
	Keyspace string
	Table    TableName
	Column   ColumnName
	Prefix   []Predicate
}

// Select renders the query. An empty prefix scans the leading column's range.
func (q DistinctQuery) Select() *Select {
	where := q.Prefix
	if len(where) == 0 {
		where = []Predicate{Scan(q.Table.KeyColumns()[0])}
	}
	return &Select{
		Keyspace: q.Keyspace,
		Table:    q.Table,
		Columns:  []ColumnName{q.Column},
		Distinct: true,
		Where:    where,
	}
}

func (q DistinctQuery) String() string {
	return q.Select().String()
}

// DistinctSource is the read primitive the enumerator pulls from. Yielded
// slices must not be reused by the source.
type DistinctSource interface {
	DistinctValues(ctx context.Context, q DistinctQuery) iter.Seq2[[]byte, error]
}

// level is one key column of the chain. A bound level yields its value once.
type level struct {
	column  ColumnName
	bound   []byte
	next    func() ([]byte, error, bool)
	stop    func()
	current []byte
}

func (l *level) close() {
	if l.stop != nil {
		l.stop()
	}
	l.next, l.stop = nil, nil
}

// KeyEnumerator produces, lazily, every combination of values for the key
// columns of a table up to its last bound column. Unbound columns before that
// point take each distinct stored value under the already fixed prefix.
//
// The chain is single pass and owned by one caller.
type KeyEnumerator struct {
	ctx      context.Context
	source   DistinctSource
	keyspace string
	table    TableName
	levels   []level
	pending  []Predicate
	started  bool
	done     bool
	err      error
}

// NewKeyEnumerator builds the level chain for table. Levels stop at the last
// bound key column, so a chain whose remaining columns are unbound ends
// without further discovery. With no bound column the enumerator is empty.
func NewKeyEnumerator(ctx context.Context, source DistinctSource, keyspace string, table TableName, values KeyValues) *KeyEnumerator {
	cols := table.KeyColumns()
	last := -1
	for i, c := range cols {
		if values.Bound(c) {
			last = i
		}
	}
	e := &KeyEnumerator{
		ctx:      ctx,
		source:   source,
		keyspace: keyspace,
		table:    table,
		done:     last < 0,
	}
	for i := 0; i <= last; i++ {
		e.levels = append(e.levels, level{column: cols[i], bound: values[cols[i]]})
	}
	return e
}

// HasNext reports whether another combination exists. It has to build the
// combination to find out; the result is kept for Next.
func (e *KeyEnumerator) HasNext() bool {
	if e.pending != nil {
		return true
	}
	return e.advance()
}

// Next returns the next combination as "colA=valA AND colB=valB ...".
func (e *KeyEnumerator) Next() (string, error) {
	preds, err := e.NextPredicates()
	if err != nil {
		return "", err
	}
	return JoinPredicates(preds), nil
}

// NextPredicates is Next in structured form.
func (e *KeyEnumerator) NextPredicates() ([]Predicate, error) {
	if !e.HasNext() {
		if e.err != nil {
			return nil, e.err
		}
		return nil, ErrIterationExhausted
	}
	p := e.pending
	e.pending = nil
	return p, nil
}

// Err returns the store failure that ended the enumeration, if any.
func (e *KeyEnumerator) Err() error {
	return e.err
}

// All adapts the enumerator to a range-over-func sequence and closes it when
// the loop ends.
func (e *KeyEnumerator) All() iter.Seq2[[]Predicate, error] {
	return func(yield func([]Predicate, error) bool) {
		defer e.Close()
		for e.HasNext() {
			p, _ := e.NextPredicates()
			if !yield(p, nil) {
				return
			}
		}
		if e.err != nil {
			yield(nil, e.err)
		}
	}
}

// Close releases every open distinct-value source.
func (e *KeyEnumerator) Close() {
	for i := range e.levels {
		e.levels[i].close()
	}
}

// advance moves the deepest level forward, backing up a level whenever one
// runs dry and re-opening the levels below with the new prefix.
func (e *KeyEnumerator) advance() bool {
	if e.done {
		return false
	}
	i := len(e.levels) - 1
	if !e.started {
		e.started = true
		i = 0
	}
	for i >= 0 {
		lv := &e.levels[i]
		if lv.next == nil {
			if err := e.open(i); err != nil {
				return e.fail(lv.column, err)
			}
		}
		v, err, ok := lv.next()
		if err != nil {
			return e.fail(lv.column, err)
		}
		if !ok {
			lv.close()
			i--
			continue
		}
		lv.current = v
		if i == len(e.levels)-1 {
			e.pending = e.combination()
			return true
		}
		i++
	}
	e.done = true
	return false
}

func (e *KeyEnumerator) open(i int) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	lv := &e.levels[i]
	var seq iter.Seq2[[]byte, error]
	if lv.bound != nil {
		seq = single(lv.bound)
	} else {
		seq = e.source.DistinctValues(e.ctx, DistinctQuery{
			Keyspace: e.keyspace,
			Table:    e.table,
			Column:   lv.column,
			Prefix:   e.prefix(i),
		})
	}
	lv.next, lv.stop = iter.Pull2(seq)
	return nil
}

func (e *KeyEnumerator) prefix(i int) []Predicate {
	preds := make([]Predicate, 0, i)
	for _, lv := range e.levels[:i] {
		preds = append(preds, Eq(lv.column, lv.current))
	}
	return preds
}

func (e *KeyEnumerator) combination() []Predicate {
	return e.prefix(len(e.levels))
}

func (e *KeyEnumerator) fail(col ColumnName, err error) bool {
	e.err = &StoreReadError{Table: e.table, Column: col, Err: err}
	e.done = true
	e.pending = nil
	e.Close()
	return false
}

func single(v []byte) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		yield(v, nil)
	}
}
