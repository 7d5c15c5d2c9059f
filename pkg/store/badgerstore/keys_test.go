package badgerstore

import (
	"bytes"
	"testing"

	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRoundTrip(t *testing.T) {
	var v cql.KeyValues
	v[cql.ColSubject] = []byte("s")
	v[cql.ColPredicate] = []byte("pp")
	v[cql.ColObject] = []byte{}
	v[cql.ColGraph] = []byte("graph")

	for _, tab := range cql.Tables {
		key := encodeKey(tab, v)
		got, err := decodeKey(tab, key)
		require.NoError(t, err)
		for _, c := range cql.KeyColumns {
			assert.True(t, bytes.Equal(v[c], got[c]), "%s %s", tab, c)
		}
	}
}

func TestKeyPrefixSelectsRows(t *testing.T) {
	var v cql.KeyValues
	v[cql.ColSubject] = []byte("s")
	v[cql.ColPredicate] = []byte("p")
	v[cql.ColObject] = []byte("o")
	v[cql.ColGraph] = []byte("g")
	key := encodeKey(cql.POGS, v)

	assert.True(t, bytes.HasPrefix(key, encodePrefix(cql.POGS, []byte("p"))))
	assert.True(t, bytes.HasPrefix(key, encodePrefix(cql.POGS, []byte("p"), []byte("o"))))
	assert.False(t, bytes.HasPrefix(key, encodePrefix(cql.POGS, []byte("pp"))))
	assert.False(t, bytes.HasPrefix(key, encodePrefix(cql.SPOG)))
}

func TestComponent(t *testing.T) {
	key := encodePrefix(cql.GSPO, []byte("g"), []byte("s"), []byte("p"), []byte("o"))
	v, through, err := component(key, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("s"), v)
	assert.Equal(t, encodePrefix(cql.GSPO, []byte("g"), []byte("s")), through)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0x03}, prefixEnd([]byte{0x01, 0x02}))
	assert.Equal(t, []byte{0x02}, prefixEnd([]byte{0x01, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff, 0xff}))
}

func TestRowValueRoundTrip(t *testing.T) {
	v := rowValue{Lang: "en", Datatype: "dt", Index: "4.2"}
	got, err := decodeRowValue(v.encode())
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = decodeRowValue([]byte{0, 0})
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig("")
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig("/tmp/x")
	assert.NoError(t, cfg.Validate())

	cfg.Profile = "Turbo"
	assert.Error(t, cfg.Validate())

	cfg = InMemoryConfig()
	assert.NoError(t, cfg.Validate())
	cfg.BlockCacheSize = 0
	assert.Error(t, cfg.Validate())
}
