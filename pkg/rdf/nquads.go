package rdf

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/google/uuid"
	knakk "github.com/knakk/rdf"
)

// DecodeNQuads streams the quads of an N-Quads document. Quads without a graph
// label land in DefaultGraph. Blank node labels are scoped to this document by
// a random prefix so that two loads of "_:b0" stay distinct.
func DecodeNQuads(r io.Reader) iter.Seq2[Quad, error] {
	return func(yield func(Quad, error) bool) {
		scope := uuid.NewString()
		dec := knakk.NewQuadDecoder(r, knakk.NQuads)
		line := 0
		for {
			kq, err := dec.Decode()
			if errors.Is(err, io.EOF) {
				return
			}
			line++
			if err != nil {
				yield(Quad{}, fmt.Errorf("quad %d: %w", line, err))
				return
			}
			q := Quad{
				Graph:     DefaultGraph,
				Subject:   fromKnakk(kq.Subj, scope),
				Predicate: fromKnakk(kq.Pred, scope),
				Object:    fromKnakk(kq.Obj, scope),
			}
			if kq.Ctx != nil {
				q.Graph = fromKnakk(kq.Ctx, scope)
			}
			if !yield(q, nil) {
				return
			}
		}
	}
}

// ParseTerm parses one term in N-Triples syntax. "ANY", "*" and the empty
// string yield the wildcard. The "xsd:" prefix is accepted in datatypes.
func ParseTerm(s string) (Node, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "ANY", "*", "_":
		return Any, nil
	}
	s = strings.ReplaceAll(s, "^^xsd:", "^^<"+XSDNamespace)
	if i := strings.Index(s, "^^<"+XSDNamespace); i >= 0 && !strings.HasSuffix(s, ">") {
		s += ">"
	}
	doc := "<urn:x-quadcql:s> <urn:x-quadcql:p> " + s + " ."
	dec := knakk.NewTripleDecoder(strings.NewReader(doc), knakk.NTriples)
	tr, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTerm, s, err)
	}
	return fromKnakk(tr.Obj, ""), nil
}

// ParseQuad parses four terms given in graph, subject, predicate, object order.
func ParseQuad(g, s, p, o string) (Quad, error) {
	var q Quad
	var err error
	for _, f := range []struct {
		dst *Node
		src string
	}{{&q.Graph, g}, {&q.Subject, s}, {&q.Predicate, p}, {&q.Object, o}} {
		if *f.dst, err = ParseTerm(f.src); err != nil {
			return Quad{}, err
		}
	}
	return q, nil
}

func fromKnakk(t knakk.Term, scope string) Node {
	switch v := t.(type) {
	case knakk.IRI:
		return IRI(v.String())
	case knakk.Blank:
		label := strings.TrimPrefix(v.String(), "_:")
		if scope != "" {
			label = scope + "-" + label
		}
		return Blank(label)
	case knakk.Literal:
		if lang := v.Lang(); lang != "" {
			return NewLangLiteral(v.String(), lang)
		}
		return NewTypedLiteral(v.String(), v.DataType.String())
	default:
		return Any
	}
}
