package cql

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/duynguyendang/quadcql/pkg/rdf"
	"github.com/shopspring/decimal"
)

// QueryInfo carries request-scoped additions to a find query.
type QueryInfo struct {
	// ExtraWhere is ANDed after the generated predicates.
	ExtraWhere string
	// Suffix is appended after a space, e.g. "LIMIT 1" or "ALLOW FILTERING".
	Suffix string
	// Limit renders as LIMIT n. Backends honour it without parsing Suffix.
	Limit int
}

// literalMeta is decided once per pattern from the object literal.
type literalMeta struct {
	kind     rdf.LiteralKind
	lang     string
	dtype    string
	index    decimal.Decimal
	hasIndex bool
}

// QueryPattern is a quad pattern bound to the table that answers it.
type QueryPattern struct {
	quad    rdf.Quad
	encoded KeyValues
	keys    KeyValues
	table   TableName
	literal *literalMeta
}

// NewQueryPattern encodes the bound positions of q and selects a table.
// A typed-numeric object whose value parses is matched on the idx column, so
// it does not count as a bound key column.
func NewQueryPattern(q rdf.Quad) (*QueryPattern, error) {
	qp := &QueryPattern{quad: q}
	positions := [4]struct {
		col  ColumnName
		node rdf.Node
	}{
		{ColSubject, q.Subject},
		{ColPredicate, q.Predicate},
		{ColObject, q.Object},
		{ColGraph, q.Graph},
	}
	for _, p := range positions {
		if !rdf.IsConcrete(p.node) {
			continue
		}
		if p.node.Kind() == rdf.KindLiteral && p.col != ColObject {
			return nil, fmt.Errorf("%w: literal %s as %s", rdf.ErrUnsupportedPosition, p.node, p.col)
		}
		b, err := rdf.Encode(p.node)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", p.col, err)
		}
		qp.encoded[p.col] = b
		qp.keys[p.col] = b
	}
	if lit, ok := q.Object.(rdf.Literal); ok {
		qp.literal = newLiteralMeta(lit)
		if qp.literal.hasIndex {
			qp.keys[ColObject] = nil
		}
	}
	qp.table = SelectTable(qp.keys)
	return qp, nil
}

func newLiteralMeta(lit rdf.Literal) *literalMeta {
	m := &literalMeta{
		kind:  rdf.Classify(lit),
		lang:  rdf.NormalizeLang(lit.Lang),
		dtype: lit.DatatypeIRI(),
	}
	if m.kind != rdf.LiteralTypedNumeric {
		return m
	}
	d, err := rdf.ParseNumeric(lit)
	if err != nil {
		if errors.Is(err, rdf.ErrUnsupportedLiteral) {
			slog.Debug("numeric index omitted", "literal", lit.String(), "error", err)
		}
		return m
	}
	m.index, m.hasIndex = d, true
	return m
}

// Quad returns the pattern this was built from.
func (qp *QueryPattern) Quad() rdf.Quad { return qp.quad }

// Table is the selected index table.
func (qp *QueryPattern) Table() TableName { return qp.table }

// KeyValues are the key column values used for table selection and key
// predicates.
func (qp *QueryPattern) KeyValues() KeyValues { return qp.keys }

// LiteralKind reports the object literal kind and whether the object is a
// literal at all.
func (qp *QueryPattern) LiteralKind() (rdf.LiteralKind, bool) {
	if qp.literal == nil {
		return 0, false
	}
	return qp.literal.kind, true
}

// HasGaps reports whether the selected table leaves an interior key column
// unbound before a bound one.
func (qp *QueryPattern) HasGaps() bool {
	return HasGaps(qp.table, qp.keys)
}

// KeyPredicates walks the table key order: bound columns become equalities,
// an unbound leading column becomes the scan predicate, and the walk stops at
// the first unbound column.
func (qp *QueryPattern) KeyPredicates() []Predicate {
	var preds []Predicate
	for i, c := range qp.table.KeyColumns() {
		v := qp.keys[c]
		if v == nil {
			if i == 0 {
				preds = append(preds, Scan(c))
			}
			break
		}
		preds = append(preds, Eq(c, v))
	}
	return preds
}

// LiteralPredicates constrains the value columns derived from an object
// literal. dtype is emitted only when there is no language tag.
func (qp *QueryPattern) LiteralPredicates() []Predicate {
	m := qp.literal
	if m == nil {
		return nil
	}
	var preds []Predicate
	if m.lang != "" {
		preds = append(preds, Eq(ColLang, m.lang))
	} else {
		preds = append(preds, Eq(ColDatatype, m.dtype))
	}
	if m.hasIndex {
		preds = append(preds, Eq(ColIndex, m.index))
	}
	return preds
}

// FindSelect builds the structured find query.
func (qp *QueryPattern) FindSelect(keyspace string, info *QueryInfo) *Select {
	return qp.selectWith(keyspace, qp.KeyPredicates(), info)
}

// ComboSelect builds the find query for one combination produced by a
// KeyEnumerator over this pattern.
func (qp *QueryPattern) ComboSelect(keyspace string, combo []Predicate, info *QueryInfo) *Select {
	return qp.selectWith(keyspace, combo, info)
}

func (qp *QueryPattern) selectWith(keyspace string, keyPreds []Predicate, info *QueryInfo) *Select {
	where := append([]Predicate(nil), keyPreds...)
	where = append(where, qp.LiteralPredicates()...)
	s := &Select{
		Keyspace: keyspace,
		Table:    qp.table,
		Columns:  SelectColumns,
		Where:    where,
	}
	if info != nil {
		if info.ExtraWhere != "" {
			s.Where = append(s.Where, Raw(info.ExtraWhere))
		}
		s.Limit = info.Limit
		s.Suffix = info.Suffix
	}
	return s
}

// FindQuery renders the find statement text.
func (qp *QueryPattern) FindQuery(keyspace string, info *QueryInfo) string {
	return qp.FindSelect(keyspace, info).String()
}

// InsertBatch builds one INSERT per table, in table declaration order.
func (qp *QueryPattern) InsertBatch(keyspace string) (*Batch, error) {
	if !qp.quad.IsConcrete() {
		return nil, fmt.Errorf("%w: %s", ErrWildcardInMutation, qp.quad)
	}
	cols := []ColumnName{ColSubject, ColPredicate, ColObject, ColGraph}
	vals := []any{qp.encoded[ColSubject], qp.encoded[ColPredicate], qp.encoded[ColObject], qp.encoded[ColGraph]}
	if m := qp.literal; m != nil {
		if m.lang != "" {
			cols = append(cols, ColLang)
			vals = append(vals, m.lang)
		}
		cols = append(cols, ColDatatype)
		vals = append(vals, m.dtype)
		if m.hasIndex {
			cols = append(cols, ColIndex)
			vals = append(vals, m.index)
		}
	}
	b := &Batch{}
	for _, t := range Tables {
		b.Statements = append(b.Statements, &Insert{Keyspace: keyspace, Table: t, Columns: cols, Values: vals})
	}
	return b, nil
}

// DeleteBatch builds one DELETE per table addressing the full primary key.
func (qp *QueryPattern) DeleteBatch(keyspace string) (*Batch, error) {
	if !qp.quad.IsConcrete() {
		return nil, fmt.Errorf("%w: %s", ErrWildcardInMutation, qp.quad)
	}
	b := &Batch{}
	for _, t := range Tables {
		var where []Predicate
		for _, c := range t.KeyColumns() {
			where = append(where, Eq(c, qp.encoded[c]))
		}
		b.Statements = append(b.Statements, &Delete{Keyspace: keyspace, Table: t, Where: where})
	}
	return b, nil
}

// BuildInsert is NewQueryPattern followed by InsertBatch.
func BuildInsert(keyspace string, q rdf.Quad) (*Batch, error) {
	qp, err := NewQueryPattern(q)
	if err != nil {
		return nil, err
	}
	return qp.InsertBatch(keyspace)
}

// BuildDelete is NewQueryPattern followed by DeleteBatch.
func BuildDelete(keyspace string, q rdf.Quad) (*Batch, error) {
	qp, err := NewQueryPattern(q)
	if err != nil {
		return nil, err
	}
	return qp.DeleteBatch(keyspace)
}

// InsertStatement renders the insert batch text for q.
func InsertStatement(keyspace string, q rdf.Quad) (string, error) {
	b, err := BuildInsert(keyspace, q)
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// DeleteStatement renders the delete batch text for q.
func DeleteStatement(keyspace string, q rdf.Quad) (string, error) {
	b, err := BuildDelete(keyspace, q)
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
