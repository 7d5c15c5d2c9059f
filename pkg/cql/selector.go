package cql

// KeyValues holds the encoded bound value of each key component, indexed by
// ColumnName. A nil entry is unbound.
type KeyValues [4][]byte

// Bound reports whether column c carries a value.
func (v KeyValues) Bound(c ColumnName) bool {
	return c.IsKey() && v[c] != nil
}

// BoundPrefix returns how many leading key columns of t are bound.
func BoundPrefix(t TableName, v KeyValues) int {
	n := 0
	for _, c := range t.KeyColumns() {
		if !v.Bound(c) {
			break
		}
		n++
	}
	return n
}

// SelectTable picks the table with the longest bound key prefix. Tables are
// compared in declaration order and a later table wins a tie, so ties resolve
// toward SPOG. With nothing bound the result is GSPO.
func SelectTable(v KeyValues) TableName {
	best, bestLen := GSPO, 0
	for _, t := range Tables {
		if n := BoundPrefix(t, v); n > 0 && n >= bestLen {
			best, bestLen = t, n
		}
	}
	return best
}

// HasGaps reports whether an unbound key column of t is followed by a bound
// one. Such patterns need a KeyEnumerator to constrain the later columns.
func HasGaps(t TableName, v KeyValues) bool {
	seenUnbound := false
	for _, c := range t.KeyColumns() {
		if !v.Bound(c) {
			seenUnbound = true
		} else if seenUnbound {
			return true
		}
	}
	return false
}
