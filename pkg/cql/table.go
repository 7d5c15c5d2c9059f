package cql

import (
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
)

// TableName is one of the four index layouts. Every key component leads
// exactly one table.
type TableName int

const (
	GSPO TableName = iota
	OSGP
	POGS
	SPOG
)

// Tables lists the layouts in declaration order. Selection ties and batch
// line order follow it.
var Tables = [4]TableName{GSPO, OSGP, POGS, SPOG}

var tableKeys = [4][4]ColumnName{
	GSPO: {ColGraph, ColSubject, ColPredicate, ColObject},
	OSGP: {ColObject, ColSubject, ColGraph, ColPredicate},
	POGS: {ColPredicate, ColObject, ColGraph, ColSubject},
	SPOG: {ColSubject, ColPredicate, ColObject, ColGraph},
}

func (t TableName) String() string {
	switch t {
	case GSPO:
		return "GSPO"
	case OSGP:
		return "OSGP"
	case POGS:
		return "POGS"
	case SPOG:
		return "SPOG"
	default:
		return fmt.Sprintf("TABLE(%d)", int(t))
	}
}

// KeyColumns returns the primary key columns in order; the first is the
// partition key.
func (t TableName) KeyColumns() [4]ColumnName {
	return tableKeys[t]
}

// ScanPredicate is the full-range condition on the leading key column.
func (t TableName) ScanPredicate() string {
	return tableKeys[t][0].ScanPredicate()
}

// Qualified returns keyspace.TABLE.
func (t TableName) Qualified(keyspace string) string {
	return keyspace + "." + t.String()
}

// ParseTable resolves a table name case-insensitively. Near misses get a
// suggestion in the error.
func ParseTable(name string) (TableName, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	best, bestDist := "", -1
	for _, t := range Tables {
		if t.String() == upper {
			return t, nil
		}
		d := levenshtein.Distance(upper, t.String(), nil)
		if bestDist < 0 || d < bestDist {
			best, bestDist = t.String(), d
		}
	}
	if bestDist >= 0 && bestDist <= 2 {
		return 0, fmt.Errorf("%w %q (did you mean %s?)", ErrUnknownTable, name, best)
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownTable, name)
}
