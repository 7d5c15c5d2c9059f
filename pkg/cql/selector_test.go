package cql

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func bound(cols ...ColumnName) KeyValues {
	var v KeyValues
	for _, c := range cols {
		v[c] = []byte(c.String())
	}
	return v
}

func TestSelectTableAllCombinations(t *testing.T) {
	for mask := 0; mask < 16; mask++ {
		var cols []ColumnName
		for _, c := range KeyColumns {
			if mask&(1<<c.KeyPos()) != 0 {
				cols = append(cols, c)
			}
		}
		v := bound(cols...)
		t.Run(fmt.Sprintf("mask=%04b", mask), func(t *testing.T) {
			got := SelectTable(v)
			longest := 0
			for _, tab := range Tables {
				longest = max(longest, BoundPrefix(tab, v))
			}
			assert.Equal(t, longest, BoundPrefix(got, v))
			if longest > 0 {
				first := got.KeyColumns()[0]
				assert.True(t, v.Bound(first))
			} else {
				assert.Equal(t, GSPO, got)
			}
		})
	}
}

func TestSelectTableTieBreak(t *testing.T) {
	assert.Equal(t, POGS, SelectTable(bound(ColGraph, ColPredicate)))
	assert.Equal(t, OSGP, SelectTable(bound(ColGraph, ColObject)))
	assert.Equal(t, SPOG, SelectTable(bound(ColGraph, ColSubject, ColPredicate, ColObject)))
	assert.Equal(t, GSPO, SelectTable(KeyValues{}))
}

func TestEveryComponentLeadsOneTable(t *testing.T) {
	leads := map[ColumnName]int{}
	for _, tab := range Tables {
		leads[tab.KeyColumns()[0]]++
	}
	for _, c := range KeyColumns {
		assert.Equal(t, 1, leads[c], c.String())
	}
}

func TestParseTable(t *testing.T) {
	tab, err := ParseTable("pogs")
	assert.NoError(t, err)
	assert.Equal(t, POGS, tab)

	_, err = ParseTable("SPOF")
	assert.ErrorIs(t, err, ErrUnknownTable)
	assert.Contains(t, err.Error(), "did you mean SPOG?")

	_, err = ParseTable("nothing")
	assert.ErrorIs(t, err, ErrUnknownTable)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestScanPredicate(t *testing.T) {
	assert.Equal(t, "token(graph) >= -9223372036854775808", GSPO.ScanPredicate())
	assert.Equal(t, "token(predicate) >= -9223372036854775808", POGS.ScanPredicate())
}
