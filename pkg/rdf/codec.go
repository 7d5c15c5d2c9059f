package rdf

import (
	"encoding/binary"
	"fmt"
)

// Term bytes for IRIs and blank nodes follow the RDF-Thrift binary layout:
// an RDF_Term union whose field 1 is RDF_IRI and field 2 is RDF_BNode, each a
// struct holding a single string at field 1. Literals store their lexical form
// and carry language and datatype in separate columns.
const (
	thriftStop   byte = 0x00
	thriftString byte = 0x0b
	thriftStruct byte = 0x0c

	termFieldIRI   uint16 = 1
	termFieldBlank uint16 = 2
	valueField     uint16 = 1

	// header(3) + string header(3) + length(4) + stops(2)
	thriftOverhead = 12
)

// Encode serializes a concrete node to the bytes stored in a key column.
func Encode(n Node) ([]byte, error) {
	switch t := n.(type) {
	case IRI:
		return encodeThrift(termFieldIRI, string(t)), nil
	case Blank:
		return encodeThrift(termFieldBlank, string(t)), nil
	case Literal:
		return []byte(t.Lexical), nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %v", ErrInvalidTerm, n)
	}
}

func encodeThrift(field uint16, value string) []byte {
	buf := make([]byte, 0, thriftOverhead+len(value))
	buf = append(buf, thriftStruct)
	buf = binary.BigEndian.AppendUint16(buf, field)
	buf = append(buf, thriftString)
	buf = binary.BigEndian.AppendUint16(buf, valueField)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(value)))
	buf = append(buf, value...)
	return append(buf, thriftStop, thriftStop)
}

// Decode rebuilds a node from its stored bytes. Literal rows always carry a
// datatype, so a non-empty lang or dtype marks b as a lexical form.
func Decode(b []byte, lang, dtype string) (Node, error) {
	if lang != "" || dtype != "" {
		l := Literal{Lexical: string(b), Lang: lang, Datatype: dtype}
		if l.Datatype == "" {
			l.Datatype = LangString
		}
		return l, nil
	}
	return decodeThrift(b)
}

func decodeThrift(b []byte) (Node, error) {
	if len(b) < thriftOverhead {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrDecode, len(b))
	}
	if b[0] != thriftStruct || b[3] != thriftString {
		return nil, fmt.Errorf("%w: unexpected field types %#x/%#x", ErrDecode, b[0], b[3])
	}
	field := binary.BigEndian.Uint16(b[1:3])
	if id := binary.BigEndian.Uint16(b[4:6]); id != valueField {
		return nil, fmt.Errorf("%w: unexpected value field %d", ErrDecode, id)
	}
	n := int(binary.BigEndian.Uint32(b[6:10]))
	if len(b) != thriftOverhead+n {
		return nil, fmt.Errorf("%w: length %d does not match %d payload bytes", ErrDecode, n, len(b)-thriftOverhead)
	}
	if b[10+n] != thriftStop || b[11+n] != thriftStop {
		return nil, fmt.Errorf("%w: missing struct terminator", ErrDecode)
	}
	value := string(b[10 : 10+n])
	switch field {
	case termFieldIRI:
		return IRI(value), nil
	case termFieldBlank:
		return Blank(value), nil
	default:
		return nil, fmt.Errorf("%w: unsupported term field %d", ErrDecode, field)
	}
}
