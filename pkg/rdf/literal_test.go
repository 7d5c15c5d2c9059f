package rdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, LiteralPlain, Classify(NewLiteral("x")))
	assert.Equal(t, LiteralPlain, Classify(Literal{Lexical: "x"}))
	assert.Equal(t, LiteralLangTagged, Classify(NewLangLiteral("x", "en-US")))
	assert.Equal(t, LiteralTypedNumeric, Classify(NewTypedLiteral("42", XSDNamespace+"int")))
	assert.Equal(t, LiteralTypedNumeric, Classify(NewTypedLiteral("1.5E3", XSDNamespace+"double")))
	assert.Equal(t, LiteralTypedOther, Classify(NewTypedLiteral("true", XSDNamespace+"boolean")))
}

func TestParseNumeric(t *testing.T) {
	d, err := ParseNumeric(NewTypedLiteral("42", XSDNamespace+"int"))
	assert.NoError(t, err)
	assert.Equal(t, "42", d.String())

	d, err = ParseNumeric(NewTypedLiteral("+007", XSDNamespace+"integer"))
	assert.NoError(t, err)
	assert.Equal(t, "7", d.String())

	d, err = ParseNumeric(NewTypedLiteral("-0.50", XSDNamespace+"decimal"))
	assert.NoError(t, err)
	assert.Equal(t, "-0.5", d.String())

	_, err = ParseNumeric(NewTypedLiteral("INF", XSDNamespace+"double"))
	assert.ErrorIs(t, err, ErrUnsupportedLiteral)

	_, err = ParseNumeric(NewLiteral("42"))
	assert.ErrorIs(t, err, ErrUnsupportedLiteral)
}

func TestParseNumericBounds(t *testing.T) {
	double := XSDNamespace + "double"
	for _, lex := range []string{"1e5000000", "1e999999999", "1E-401", strings.Repeat("9", MaxNumericDigits+1)} {
		_, err := ParseNumeric(NewTypedLiteral(lex, double))
		assert.ErrorIs(t, err, ErrUnsupportedLiteral, lex)
	}

	d, err := ParseNumeric(NewTypedLiteral("1e400", double))
	assert.NoError(t, err)
	assert.Len(t, d.String(), 401)

	_, err = ParseNumeric(NewTypedLiteral("-2.5E-300", double))
	assert.NoError(t, err)
}

func TestMatchesNumericByValue(t *testing.T) {
	pattern := NewQuad(nil, nil, nil, NewTypedLiteral("42", XSDNamespace+"int"))
	stored := NewQuad(IRI("g"), IRI("s"), IRI("p"), NewTypedLiteral("042", XSDNamespace+"int"))
	assert.True(t, pattern.Matches(stored))

	other := NewQuad(IRI("g"), IRI("s"), IRI("p"), NewTypedLiteral("42", XSDNamespace+"long"))
	assert.False(t, pattern.Matches(other))
}

func TestMatchesLangCaseInsensitive(t *testing.T) {
	pattern := NewQuad(nil, nil, nil, NewLangLiteral("colour", "en-GB"))
	stored := NewQuad(IRI("g"), IRI("s"), IRI("p"), NewLangLiteral("colour", "en-gb"))
	assert.True(t, pattern.Matches(stored))
}

func TestLiteralString(t *testing.T) {
	assert.Equal(t, `"a\"b"`, NewLiteral(`a"b`).String())
	assert.Equal(t, `"chat"@fr`, NewLangLiteral("chat", "fr").String())
	assert.Equal(t, `"42"^^<http://www.w3.org/2001/XMLSchema#int>`, NewTypedLiteral("42", XSDNamespace+"int").String())
}
