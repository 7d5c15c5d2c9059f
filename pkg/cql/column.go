package cql

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ColumnType is the CQL type of a column. It decides how values render.
type ColumnType int

const (
	TypeBlob ColumnType = iota
	TypeText
	TypeDecimal
)

func (t ColumnType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeDecimal:
		return "decimal"
	default:
		return "blob"
	}
}

// ColumnName is one column of the index tables.
type ColumnName int

const (
	ColSubject ColumnName = iota
	ColPredicate
	ColObject
	ColGraph
	ColLang
	ColDatatype
	ColIndex
)

// Columns lists every column in declaration order.
var Columns = []ColumnName{ColSubject, ColPredicate, ColObject, ColGraph, ColLang, ColDatatype, ColIndex}

// KeyColumns is the default key column set, indexed by key position.
var KeyColumns = [4]ColumnName{ColSubject, ColPredicate, ColObject, ColGraph}

var columnInfo = [...]struct {
	name     string
	typ      ColumnType
	keyPos   int
	queryPos int
}{
	ColSubject:   {"subject", TypeBlob, 0, 0},
	ColPredicate: {"predicate", TypeBlob, 1, 1},
	ColObject:    {"object", TypeBlob, 2, 2},
	ColGraph:     {"graph", TypeBlob, 3, 3},
	ColLang:      {"lang", TypeText, -1, 4},
	ColDatatype:  {"dtype", TypeText, -1, 5},
	ColIndex:     {"idx", TypeDecimal, -1, -1},
}

func (c ColumnName) String() string {
	if c < 0 || int(c) >= len(columnInfo) {
		return "column(" + strconv.Itoa(int(c)) + ")"
	}
	return columnInfo[c].name
}

// Type returns the CQL type of c.
func (c ColumnName) Type() ColumnType { return columnInfo[c].typ }

// KeyPos is the position of c in the default key set, or -1 for value columns.
func (c ColumnName) KeyPos() int { return columnInfo[c].keyPos }

// QueryPos is the position of c in the SELECT list, or -1 when not selected.
func (c ColumnName) QueryPos() int { return columnInfo[c].queryPos }

// IsKey reports whether c takes part in the primary keys.
func (c ColumnName) IsKey() bool { return c.KeyPos() >= 0 }

// ScanPredicate is the full token range condition used when c leads a table
// and is unbound.
func (c ColumnName) ScanPredicate() string {
	return "token(" + c.String() + ") >= " + strconv.FormatInt(math.MinInt64, 10)
}

// SelectColumns is the fixed SELECT list of find queries.
var SelectColumns = func() []ColumnName {
	var cols []ColumnName
	for _, c := range Columns {
		if c.QueryPos() >= 0 {
			cols = append(cols, c)
		}
	}
	return cols
}()

// Format renders v as a CQL literal for column c: blobs as 0x hex, text
// single-quoted, decimals unquoted.
func (c ColumnName) Format(v any) string {
	switch c.Type() {
	case TypeBlob:
		if b, ok := v.([]byte); ok {
			return Hex(b)
		}
	case TypeText:
		if s, ok := v.(string); ok {
			return Quote(s)
		}
	case TypeDecimal:
		switch d := v.(type) {
		case decimal.Decimal:
			return d.String()
		case string:
			return d
		}
	}
	return fmt.Sprint(v)
}

// Hex renders b as a lowercase CQL blob literal.
func Hex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// ParseHex reverses Hex.
func ParseHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("blob literal %q lacks 0x prefix", s)
	}
	return hex.DecodeString(s[2:])
}

// Quote renders s as a CQL string literal.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func joinColumns(cols []ColumnName) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}
