package badgerstore

import (
	"context"
	"testing"

	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/rdf"
	"github.com/duynguyendang/quadcql/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ks = "test"

var _ store.Session = (*Store)(nil)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(InMemoryConfig())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func iri(s string) rdf.IRI { return rdf.IRI("http://example.com/" + s) }

func insert(t *testing.T, s *Store, q rdf.Quad) {
	t.Helper()
	b, err := cql.BuildInsert(ks, q)
	require.NoError(t, err)
	require.NoError(t, s.Apply(context.Background(), b))
}

func rows(t *testing.T, s *Store, sel *cql.Select) []rdf.Quad {
	t.Helper()
	var out []rdf.Quad
	for r, err := range s.Select(context.Background(), sel) {
		require.NoError(t, err)
		q, err := r.Quad()
		require.NoError(t, err)
		out = append(out, q)
	}
	return out
}

func TestApplyWritesAllTables(t *testing.T) {
	s := setupTestStore(t)
	insert(t, s, rdf.NewQuad(iri("g"), iri("s"), iri("p"), iri("o")))

	for _, tab := range cql.Tables {
		n, err := s.Count(context.Background(), tab)
		require.NoError(t, err)
		assert.Equal(t, 1, n, tab.String())
	}
}

func TestSelectByPrefix(t *testing.T) {
	s := setupTestStore(t)
	insert(t, s, rdf.NewQuad(iri("g"), iri("s1"), iri("p"), iri("o")))
	insert(t, s, rdf.NewQuad(iri("g"), iri("s2"), iri("p"), iri("o")))
	insert(t, s, rdf.NewQuad(iri("g"), iri("s2"), iri("q"), rdf.NewLangLiteral("chat", "FR")))

	qp, err := cql.NewQueryPattern(rdf.NewQuad(nil, iri("s2"), nil, nil))
	require.NoError(t, err)
	got := rows(t, s, qp.FindSelect(ks, nil))
	assert.Len(t, got, 2)

	qp, err = cql.NewQueryPattern(rdf.NewQuad(nil, nil, nil, rdf.NewLangLiteral("chat", "fr")))
	require.NoError(t, err)
	got = rows(t, s, qp.FindSelect(ks, nil))
	require.Len(t, got, 1)
	assert.Equal(t, "fr", got[0].Object.(rdf.Literal).Lang)
}

func TestSelectNumericByIndex(t *testing.T) {
	s := setupTestStore(t)
	intType := rdf.XSDNamespace + "int"
	insert(t, s, rdf.NewQuad(iri("g"), iri("a"), iri("age"), rdf.NewTypedLiteral("42", intType)))
	insert(t, s, rdf.NewQuad(iri("g"), iri("b"), iri("age"), rdf.NewTypedLiteral("042", intType)))
	insert(t, s, rdf.NewQuad(iri("g"), iri("c"), iri("age"), rdf.NewTypedLiteral("43", intType)))

	qp, err := cql.NewQueryPattern(rdf.NewQuad(nil, nil, iri("age"), rdf.NewTypedLiteral("42", intType)))
	require.NoError(t, err)
	assert.Equal(t, cql.POGS, qp.Table())
	got := rows(t, s, qp.FindSelect(ks, nil))
	assert.Len(t, got, 2)
}

func TestSelectLimit(t *testing.T) {
	s := setupTestStore(t)
	for _, subj := range []string{"a", "b", "c"} {
		insert(t, s, rdf.NewQuad(iri("g"), iri(subj), iri("p"), iri("o")))
	}
	qp, err := cql.NewQueryPattern(rdf.NewQuad(iri("g"), nil, nil, nil))
	require.NoError(t, err)
	assert.Len(t, rows(t, s, qp.FindSelect(ks, &cql.QueryInfo{Limit: 2})), 2)
}

func TestSelectRejectsRawPredicate(t *testing.T) {
	s := setupTestStore(t)
	qp, err := cql.NewQueryPattern(rdf.NewQuad(iri("g"), nil, nil, nil))
	require.NoError(t, err)
	for _, err := range s.Select(context.Background(), qp.FindSelect(ks, &cql.QueryInfo{ExtraWhere: "x=1"})) {
		assert.ErrorIs(t, err, store.ErrUnsupportedPredicate)
	}
}

func TestDistinctValues(t *testing.T) {
	s := setupTestStore(t)
	insert(t, s, rdf.NewQuad(iri("g1"), iri("s1"), iri("p"), iri("o")))
	insert(t, s, rdf.NewQuad(iri("g1"), iri("s2"), iri("p"), iri("o")))
	insert(t, s, rdf.NewQuad(iri("g2"), iri("s2"), iri("p"), iri("o")))
	insert(t, s, rdf.NewQuad(iri("g2"), iri("s3"), iri("q"), iri("o")))

	o, _ := rdf.Encode(iri("o"))
	var subjects []rdf.Node
	for v, err := range s.DistinctValues(context.Background(), cql.DistinctQuery{
		Keyspace: ks, Table: cql.OSGP, Column: cql.ColSubject,
		Prefix: []cql.Predicate{cql.Eq(cql.ColObject, o)},
	}) {
		require.NoError(t, err)
		n, err := rdf.Decode(v, "", "")
		require.NoError(t, err)
		subjects = append(subjects, n)
	}
	assert.ElementsMatch(t, []rdf.Node{iri("s1"), iri("s2"), iri("s3")}, subjects)

	var graphs int
	for _, err := range s.DistinctValues(context.Background(), cql.DistinctQuery{Keyspace: ks, Table: cql.GSPO, Column: cql.ColGraph}) {
		require.NoError(t, err)
		graphs++
	}
	assert.Equal(t, 2, graphs)
}

func TestDistinctValuesWrongColumn(t *testing.T) {
	s := setupTestStore(t)
	for _, err := range s.DistinctValues(context.Background(), cql.DistinctQuery{Keyspace: ks, Table: cql.GSPO, Column: cql.ColObject}) {
		assert.ErrorIs(t, err, store.ErrUnsupportedPredicate)
	}
}

func TestDeleteRemovesAllTables(t *testing.T) {
	s := setupTestStore(t)
	q := rdf.NewQuad(iri("g"), iri("s"), iri("p"), rdf.NewTypedLiteral("42", rdf.XSDNamespace+"int"))
	insert(t, s, q)

	b, err := cql.BuildDelete(ks, q)
	require.NoError(t, err)
	require.NoError(t, s.Apply(context.Background(), b))

	for _, tab := range cql.Tables {
		n, err := s.Count(context.Background(), tab)
		require.NoError(t, err)
		assert.Zero(t, n)
	}
}

func TestClosedStore(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Apply(context.Background(), &cql.Batch{}), store.ErrClosed)
}
