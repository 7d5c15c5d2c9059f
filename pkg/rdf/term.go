// Package rdf holds the term and quad model stored by the four index tables,
// the binary term codec and an N-Quads loader.
package rdf

import (
	"fmt"
	"strings"
)

// Well-known IRIs.
const (
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	XSDString  = XSDNamespace + "string"
	LangString = RDFNamespace + "langString"

	// DefaultGraph names the graph used for quads loaded without a graph label.
	DefaultGraph IRI = "urn:x-arq:DefaultGraph"
)

// NodeKind discriminates the concrete Node variants.
type NodeKind int

const (
	KindAny NodeKind = iota
	KindIRI
	KindBlank
	KindLiteral
)

func (k NodeKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "any"
	}
}

// Node is one position of a quad. Any is the wildcard.
type Node interface {
	Kind() NodeKind
	// String renders the node in N-Triples syntax.
	String() string
}

// IRI is an absolute IRI reference.
type IRI string

func (IRI) Kind() NodeKind   { return KindIRI }
func (i IRI) String() string { return "<" + string(i) + ">" }

// Blank is a blank node label without the "_:" prefix.
type Blank string

func (Blank) Kind() NodeKind   { return KindBlank }
func (b Blank) String() string { return "_:" + string(b) }

// Literal is an RDF literal. A language-tagged literal has Datatype LangString,
// a plain literal has Datatype XSDString.
type Literal struct {
	Lexical  string
	Lang     string
	Datatype string
}

// NewLiteral returns a plain xsd:string literal.
func NewLiteral(lexical string) Literal {
	return Literal{Lexical: lexical, Datatype: XSDString}
}

// NewLangLiteral returns a language-tagged literal.
func NewLangLiteral(lexical, lang string) Literal {
	return Literal{Lexical: lexical, Lang: lang, Datatype: LangString}
}

// NewTypedLiteral returns a literal with an explicit datatype IRI.
func NewTypedLiteral(lexical, datatype string) Literal {
	if datatype == "" {
		datatype = XSDString
	}
	return Literal{Lexical: lexical, Datatype: datatype}
}

func (Literal) Kind() NodeKind { return KindLiteral }

func (l Literal) String() string {
	var sb strings.Builder
	sb.WriteByte('"')
	sb.WriteString(escapeLexical(l.Lexical))
	sb.WriteByte('"')
	switch {
	case l.Lang != "":
		sb.WriteByte('@')
		sb.WriteString(l.Lang)
	case l.Datatype != "" && l.Datatype != XSDString:
		sb.WriteString("^^<")
		sb.WriteString(l.Datatype)
		sb.WriteByte('>')
	}
	return sb.String()
}

// DatatypeIRI returns the effective datatype, defaulting the way RDF 1.1 does.
func (l Literal) DatatypeIRI() string {
	switch {
	case l.Lang != "":
		return LangString
	case l.Datatype == "":
		return XSDString
	default:
		return l.Datatype
	}
}

type anyNode struct{}

func (anyNode) Kind() NodeKind { return KindAny }
func (anyNode) String() string { return "ANY" }

// Any matches every value in a pattern position.
var Any Node = anyNode{}

// IsConcrete reports whether n is bound to a value.
func IsConcrete(n Node) bool {
	return n != nil && n.Kind() != KindAny
}

// Equal compares two nodes by value. Literal language tags compare
// case-insensitively.
func Equal(a, b Node) bool {
	if !IsConcrete(a) || !IsConcrete(b) {
		return !IsConcrete(a) && !IsConcrete(b)
	}
	la, aok := a.(Literal)
	lb, bok := b.(Literal)
	if aok && bok {
		return la.Lexical == lb.Lexical &&
			strings.EqualFold(la.Lang, lb.Lang) &&
			la.DatatypeIRI() == lb.DatatypeIRI()
	}
	return a == b
}

// Quad is the unit of storage. A Quad with wildcard positions is a pattern.
type Quad struct {
	Graph     Node
	Subject   Node
	Predicate Node
	Object    Node
}

// NewQuad builds a quad, substituting Any for nil positions.
func NewQuad(g, s, p, o Node) Quad {
	return Quad{Graph: orAny(g), Subject: orAny(s), Predicate: orAny(p), Object: orAny(o)}
}

func orAny(n Node) Node {
	if n == nil {
		return Any
	}
	return n
}

// IsConcrete reports whether every position is bound.
func (q Quad) IsConcrete() bool {
	return IsConcrete(q.Graph) && IsConcrete(q.Subject) && IsConcrete(q.Predicate) && IsConcrete(q.Object)
}

// Equal reports whether q and c are the same quad term for term. Numeric
// literals compare by lexical form, so "42" and "42.0" differ.
func (q Quad) Equal(c Quad) bool {
	return Equal(q.Graph, c.Graph) && Equal(q.Subject, c.Subject) &&
		Equal(q.Predicate, c.Predicate) && Equal(q.Object, c.Object)
}

// Matches reports whether the concrete quad c satisfies pattern q.
func (q Quad) Matches(c Quad) bool {
	return matchNode(q.Graph, c.Graph) &&
		matchNode(q.Subject, c.Subject) &&
		matchNode(q.Predicate, c.Predicate) &&
		matchNode(q.Object, c.Object)
}

func matchNode(pattern, value Node) bool {
	if !IsConcrete(pattern) {
		return true
	}
	pl, pok := pattern.(Literal)
	vl, vok := value.(Literal)
	if pok && vok && IsNumeric(pl.DatatypeIRI()) && pl.DatatypeIRI() == vl.DatatypeIRI() {
		pn, perr := ParseNumeric(pl)
		vn, verr := ParseNumeric(vl)
		if perr == nil && verr == nil {
			return pn.Equal(vn)
		}
	}
	return Equal(pattern, value)
}

// String renders the quad as an N-Quads line without the trailing newline.
func (q Quad) String() string {
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Graph)
}

func escapeLexical(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return r.Replace(s)
}
