package rdf

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// LiteralKind classifies a literal once, when a pattern or row is built.
type LiteralKind int

const (
	LiteralPlain LiteralKind = iota
	LiteralLangTagged
	LiteralTypedNumeric
	LiteralTypedOther
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralLangTagged:
		return "lang-tagged"
	case LiteralTypedNumeric:
		return "typed-numeric"
	case LiteralTypedOther:
		return "typed-other"
	default:
		return "plain"
	}
}

var numericTypes = map[string]struct{}{
	XSDNamespace + "decimal":            {},
	XSDNamespace + "integer":            {},
	XSDNamespace + "int":                {},
	XSDNamespace + "long":               {},
	XSDNamespace + "short":              {},
	XSDNamespace + "byte":               {},
	XSDNamespace + "double":             {},
	XSDNamespace + "float":              {},
	XSDNamespace + "nonNegativeInteger": {},
	XSDNamespace + "nonPositiveInteger": {},
	XSDNamespace + "positiveInteger":    {},
	XSDNamespace + "negativeInteger":    {},
	XSDNamespace + "unsignedLong":       {},
	XSDNamespace + "unsignedInt":        {},
	XSDNamespace + "unsignedShort":      {},
	XSDNamespace + "unsignedByte":       {},
}

// IsNumeric reports whether datatype is one of the XSD numeric types.
func IsNumeric(datatype string) bool {
	_, ok := numericTypes[datatype]
	return ok
}

// Classify returns the kind of l.
func Classify(l Literal) LiteralKind {
	switch dt := l.DatatypeIRI(); {
	case l.Lang != "":
		return LiteralLangTagged
	case dt == XSDString:
		return LiteralPlain
	case IsNumeric(dt):
		return LiteralTypedNumeric
	default:
		return LiteralTypedOther
	}
}

// Bounds on numeric literals that get an idx value. The rendered decimal has
// at most MaxNumericDigits plus |MaxNumericExponent| digits.
const (
	MaxNumericDigits   = 128
	MaxNumericExponent = 400
)

// ParseNumeric returns the numeric value of a typed-numeric literal. Lexical
// forms outside the decimal grammar (INF, NaN) and values beyond the digit or
// exponent bounds yield ErrUnsupportedLiteral.
func ParseNumeric(l Literal) (decimal.Decimal, error) {
	if !IsNumeric(l.DatatypeIRI()) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s is not numeric", ErrUnsupportedLiteral, l.DatatypeIRI())
	}
	lex := strings.TrimSpace(l.Lexical)
	lex = strings.TrimPrefix(lex, "+")
	if len(lex) > MaxNumericDigits {
		return decimal.Decimal{}, fmt.Errorf("%w: lexical form longer than %d", ErrUnsupportedLiteral, MaxNumericDigits)
	}
	d, err := decimal.NewFromString(lex)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q: %v", ErrUnsupportedLiteral, l.Lexical, err)
	}
	if exp := d.Exponent(); exp > MaxNumericExponent || exp < -MaxNumericExponent {
		return decimal.Decimal{}, fmt.Errorf("%w: %q: exponent %d out of range", ErrUnsupportedLiteral, l.Lexical, exp)
	}
	return d, nil
}

// NormalizeLang lower-cases a language tag the way it is stored.
func NormalizeLang(lang string) string {
	return strings.ToLower(lang)
}
