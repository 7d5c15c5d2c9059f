package badgerstore

import (
	"encoding/binary"
	"fmt"

	"github.com/duynguyendang/quadcql/pkg/cql"
)

// Key layout per table row:
//
//	[prefix(1) | len(4) value | len(4) value | len(4) value | len(4) value]
//
// with the four key columns in the table's own order. Length prefixes keep
// every bound key prefix a byte prefix of the rows it selects.
const (
	tablePrefixBase byte = 0x20
	lenSize              = 4
)

func tablePrefix(t cql.TableName) byte {
	return tablePrefixBase + byte(t)
}

func appendComponent(buf, v []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(v)))
	return append(buf, v...)
}

// encodePrefix encodes the table byte followed by the given leading values.
func encodePrefix(t cql.TableName, values ...[]byte) []byte {
	n := 1
	for _, v := range values {
		n += lenSize + len(v)
	}
	buf := make([]byte, 0, n)
	buf = append(buf, tablePrefix(t))
	for _, v := range values {
		buf = appendComponent(buf, v)
	}
	return buf
}

// encodeKey encodes a full row key from values indexed by column.
func encodeKey(t cql.TableName, values cql.KeyValues) []byte {
	cols := t.KeyColumns()
	return encodePrefix(t, values[cols[0]], values[cols[1]], values[cols[2]], values[cols[3]])
}

// decodeKey splits a row key back into values indexed by column. The
// returned slices alias key.
func decodeKey(t cql.TableName, key []byte) (cql.KeyValues, error) {
	var out cql.KeyValues
	if len(key) == 0 || key[0] != tablePrefix(t) {
		return out, fmt.Errorf("key does not belong to %s", t)
	}
	rest := key[1:]
	for _, c := range t.KeyColumns() {
		if len(rest) < lenSize {
			return out, fmt.Errorf("truncated %s key at %s", t, c)
		}
		n := int(binary.BigEndian.Uint32(rest))
		rest = rest[lenSize:]
		if len(rest) < n {
			return out, fmt.Errorf("truncated %s value in %s key", c, t)
		}
		out[c] = rest[:n:n]
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return out, fmt.Errorf("%d trailing bytes in %s key", len(rest), t)
	}
	return out, nil
}

// component returns the encoded column at position pos of key, starting
// after the table byte.
func component(key []byte, pos int) (value, through []byte, err error) {
	off := 1
	for i := 0; ; i++ {
		if len(key) < off+lenSize {
			return nil, nil, fmt.Errorf("truncated key")
		}
		n := int(binary.BigEndian.Uint32(key[off:]))
		end := off + lenSize + n
		if len(key) < end {
			return nil, nil, fmt.Errorf("truncated key")
		}
		if i == pos {
			return key[off+lenSize : end], key[:end], nil
		}
		off = end
	}
}

// prefixEnd returns the smallest key greater than every key starting with p.
func prefixEnd(p []byte) []byte {
	end := append([]byte(nil), p...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// rowValue holds the value columns of a row.
type rowValue struct {
	Lang     string
	Datatype string
	Index    string
}

func (v rowValue) encode() []byte {
	buf := make([]byte, 0, 3*lenSize+len(v.Lang)+len(v.Datatype)+len(v.Index))
	buf = appendComponent(buf, []byte(v.Lang))
	buf = appendComponent(buf, []byte(v.Datatype))
	return appendComponent(buf, []byte(v.Index))
}

func decodeRowValue(b []byte) (rowValue, error) {
	var parts [3]string
	for i := range parts {
		if len(b) < lenSize {
			return rowValue{}, fmt.Errorf("truncated row value")
		}
		n := int(binary.BigEndian.Uint32(b))
		b = b[lenSize:]
		if len(b) < n {
			return rowValue{}, fmt.Errorf("truncated row value")
		}
		parts[i] = string(b[:n])
		b = b[n:]
	}
	return rowValue{Lang: parts[0], Datatype: parts[1], Index: parts[2]}, nil
}
