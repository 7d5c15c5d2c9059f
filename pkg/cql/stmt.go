package cql

import (
	"strconv"
	"strings"
)

// PredicateOp is the shape of a WHERE fragment.
type PredicateOp int

const (
	OpEq PredicateOp = iota
	OpScan
	OpRaw
)

// Predicate is one WHERE fragment. Backends that do not speak CQL interpret
// the structured form instead of the text.
type Predicate struct {
	Op     PredicateOp
	Column ColumnName
	Value  any
	Expr   string
}

// Eq constrains col to v. v is []byte for blob columns, string for text and
// decimal.Decimal for the numeric index.
func Eq(col ColumnName, v any) Predicate {
	return Predicate{Op: OpEq, Column: col, Value: v}
}

// Scan is the full token range condition on col.
func Scan(col ColumnName) Predicate {
	return Predicate{Op: OpScan, Column: col}
}

// Raw passes a caller supplied fragment through unchanged.
func Raw(expr string) Predicate {
	return Predicate{Op: OpRaw, Expr: expr}
}

func (p Predicate) String() string {
	switch p.Op {
	case OpScan:
		return p.Column.ScanPredicate()
	case OpRaw:
		return p.Expr
	default:
		return p.Column.String() + "=" + p.Column.Format(p.Value)
	}
}

// JoinPredicates renders fragments joined by " AND ".
func JoinPredicates(preds []Predicate) string {
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = p.String()
	}
	return strings.Join(parts, " AND ")
}

// Select is a read against one index table.
type Select struct {
	Keyspace string
	Table    TableName
	Columns  []ColumnName
	Distinct bool
	Where    []Predicate
	Limit    int
	Suffix   string
}

func (s *Select) String() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if s.Distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(joinColumns(s.Columns))
	sb.WriteString(" FROM ")
	sb.WriteString(s.Table.Qualified(s.Keyspace))
	if len(s.Where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(JoinPredicates(s.Where))
	}
	if s.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(s.Limit))
	}
	if s.Suffix != "" {
		sb.WriteByte(' ')
		sb.WriteString(s.Suffix)
	}
	return sb.String()
}

// Mutation is a statement that can be placed in a Batch.
type Mutation interface {
	Target() TableName
	String() string
}

// Insert writes one row.
type Insert struct {
	Keyspace string
	Table    TableName
	Columns  []ColumnName
	Values   []any
}

func (i *Insert) Target() TableName { return i.Table }

func (i *Insert) String() string {
	vals := make([]string, len(i.Values))
	for n, v := range i.Values {
		vals[n] = i.Columns[n].Format(v)
	}
	return "INSERT INTO " + i.Table.Qualified(i.Keyspace) +
		" (" + joinColumns(i.Columns) + ") VALUES (" + strings.Join(vals, ", ") + ");"
}

// Delete removes the row addressed by a full primary key.
type Delete struct {
	Keyspace string
	Table    TableName
	Where    []Predicate
}

func (d *Delete) Target() TableName { return d.Table }

func (d *Delete) String() string {
	return "DELETE FROM " + d.Table.Qualified(d.Keyspace) + " WHERE " + JoinPredicates(d.Where) + ";"
}

// Batch groups the per-table mutations of one quad.
type Batch struct {
	Statements []Mutation
}

func (b *Batch) String() string {
	var sb strings.Builder
	sb.WriteString("BEGIN BATCH\n")
	for _, m := range b.Statements {
		sb.WriteString(m.String())
		sb.WriteByte('\n')
	}
	sb.WriteString("APPLY BATCH;")
	return sb.String()
}
