package graph

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/rdf"
	"github.com/duynguyendang/quadcql/pkg/store"
	"github.com/duynguyendang/quadcql/pkg/store/badgerstore"
	"github.com/duynguyendang/quadcql/pkg/store/sqlitestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ks = "test"

func iri(s string) rdf.IRI { return rdf.IRI("http://example.com/" + s) }

var xsdInt = rdf.XSDNamespace + "int"

// fixture is stored in every backend under test.
var fixture = []rdf.Quad{
	rdf.NewQuad(iri("g1"), iri("alice"), iri("knows"), iri("bob")),
	rdf.NewQuad(iri("g1"), iri("alice"), iri("name"), rdf.NewLangLiteral("Alice", "en")),
	rdf.NewQuad(iri("g1"), iri("bob"), iri("age"), rdf.NewTypedLiteral("42", xsdInt)),
	rdf.NewQuad(iri("g2"), iri("carol"), iri("knows"), iri("alice")),
	rdf.NewQuad(iri("g2"), iri("carol"), iri("knows"), iri("bob")),
	rdf.NewQuad(iri("g2"), iri("dave"), iri("age"), rdf.NewTypedLiteral("7", xsdInt)),
	rdf.NewQuad(iri("g3"), iri("erin"), iri("knows"), rdf.Blank("x")),
}

func backends(t *testing.T) map[string]func(t *testing.T) store.Session {
	return map[string]func(t *testing.T) store.Session{
		"badger": func(t *testing.T) store.Session {
			s, err := badgerstore.Open(badgerstore.InMemoryConfig())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) store.Session {
			s, err := sqlitestore.Open(filepath.Join(t.TempDir(), "graph.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func setupGraph(t *testing.T, open func(t *testing.T) store.Session) *Graph {
	t.Helper()
	g := New(open(t), ks)
	t.Cleanup(func() { g.Close() })
	ctx := context.Background()
	for _, q := range fixture {
		require.NoError(t, g.Add(ctx, q))
	}
	return g
}

func sorted(quads []rdf.Quad) []string {
	out := make([]string, len(quads))
	for i, q := range quads {
		out[i] = q.String()
	}
	sort.Strings(out)
	return out
}

func TestFind(t *testing.T) {
	cases := []struct {
		name    string
		pattern rdf.Quad
		want    []rdf.Quad
	}{
		{"everything", rdf.NewQuad(nil, nil, nil, nil), fixture},
		{"by graph", rdf.NewQuad(iri("g1"), nil, nil, nil), fixture[:3]},
		{"by subject", rdf.NewQuad(nil, iri("carol"), nil, nil), fixture[3:5]},
		{"by object", rdf.NewQuad(nil, nil, nil, iri("bob")), []rdf.Quad{fixture[0], fixture[4]}},
		{"graph and predicate leave a gap", rdf.NewQuad(iri("g2"), nil, iri("knows"), nil), fixture[3:5]},
		{"subject and object", rdf.NewQuad(nil, iri("carol"), nil, iri("bob")), fixture[4:5]},
		{"numeric by value", rdf.NewQuad(nil, nil, nil, rdf.NewTypedLiteral("42.0", xsdInt)), fixture[2:3]},
		{"numeric with predicate", rdf.NewQuad(nil, nil, iri("age"), rdf.NewTypedLiteral("7", xsdInt)), fixture[5:6]},
		{"language literal", rdf.NewQuad(nil, nil, nil, rdf.NewLangLiteral("Alice", "EN")), fixture[1:2]},
		{"blank object leaves a gap", rdf.NewQuad(iri("g3"), nil, nil, rdf.Blank("x")), fixture[6:7]},
		{"fully bound", fixture[3], fixture[3:4]},
		{"no match", rdf.NewQuad(iri("g9"), nil, nil, nil), nil},
	}
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := setupGraph(t, open)
			for _, tc := range cases {
				t.Run(tc.name, func(t *testing.T) {
					got, err := g.FindAll(context.Background(), tc.pattern, nil)
					require.NoError(t, err)
					assert.Equal(t, sorted(tc.want), sorted(got))
				})
			}
		})
	}
}

func TestFindLimitSpansCombinations(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := setupGraph(t, open)
			pattern := rdf.NewQuad(nil, nil, iri("knows"), nil)
			got, err := g.FindAll(context.Background(), pattern, &cql.QueryInfo{Limit: 2})
			require.NoError(t, err)
			assert.Len(t, got, 2)

			pattern = rdf.NewQuad(iri("g2"), nil, iri("knows"), nil)
			got, err = g.FindAll(context.Background(), pattern, &cql.QueryInfo{Limit: 1})
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestFindRejectsLiteralSubject(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := setupGraph(t, open)
			_, err := g.FindAll(context.Background(), rdf.NewQuad(nil, rdf.NewLiteral("x"), nil, nil), nil)
			assert.ErrorIs(t, err, rdf.ErrUnsupportedPosition)
		})
	}
}

func TestContainsCountDelete(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := setupGraph(t, open)

			ok, err := g.Contains(ctx, fixture[2])
			require.NoError(t, err)
			assert.True(t, ok)

			_, err = g.Contains(ctx, rdf.NewQuad(nil, iri("alice"), nil, nil))
			assert.ErrorIs(t, err, cql.ErrWildcardInMutation)

			n, err := g.Count(ctx, rdf.NewQuad(nil, nil, nil, nil))
			require.NoError(t, err)
			assert.Equal(t, len(fixture), n)

			n, err = g.Count(ctx, rdf.NewQuad(nil, nil, iri("knows"), nil))
			require.NoError(t, err)
			assert.Equal(t, 4, n)

			require.NoError(t, g.Delete(ctx, fixture[2]))
			ok, err = g.Contains(ctx, fixture[2])
			require.NoError(t, err)
			assert.False(t, ok)

			removed, err := g.DeleteMatching(ctx, rdf.NewQuad(iri("g2"), nil, nil, nil))
			require.NoError(t, err)
			assert.Equal(t, 3, removed)

			stats, err := g.Stats(ctx)
			require.NoError(t, err)
			for _, tab := range cql.Tables {
				assert.Equal(t, len(fixture)-4, stats[tab], tab.String())
			}
		})
	}
}

func TestContainsIsExact(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := setupGraph(t, open)
			sameValue := rdf.NewQuad(iri("g1"), iri("bob"), iri("age"), rdf.NewTypedLiteral("42.0", xsdInt))

			found, err := g.FindAll(ctx, sameValue, nil)
			require.NoError(t, err)
			assert.Equal(t, []rdf.Quad{fixture[2]}, found)

			ok, err := g.Contains(ctx, sameValue)
			require.NoError(t, err)
			assert.False(t, ok)

			removed, err := g.Remove(ctx, sameValue)
			require.NoError(t, err)
			assert.False(t, removed)

			ok, err = g.Contains(ctx, fixture[2])
			require.NoError(t, err)
			assert.True(t, ok)

			removed, err = g.Remove(ctx, fixture[2])
			require.NoError(t, err)
			assert.True(t, removed)

			ok, err = g.Contains(ctx, fixture[2])
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestAddRejectsWildcard(t *testing.T) {
	s, err := badgerstore.Open(badgerstore.InMemoryConfig())
	require.NoError(t, err)
	g := New(s, ks)
	defer g.Close()
	err = g.Add(context.Background(), rdf.NewQuad(iri("g"), iri("s"), nil, iri("o")))
	assert.ErrorIs(t, err, cql.ErrWildcardInMutation)
}

func TestLoad(t *testing.T) {
	doc := `<http://example.com/s> <http://example.com/p> "v"@en <http://example.com/g> .
<http://example.com/s> <http://example.com/p> "3"^^<http://www.w3.org/2001/XMLSchema#integer> .
_:b1 <http://example.com/p> <http://example.com/o> <http://example.com/g> .
`
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := New(open(t), ks, WithLoadWorkers(2))
			defer g.Close()
			ctx := context.Background()

			n, err := g.Load(ctx, strings.NewReader(doc))
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			got, err := g.FindAll(ctx, rdf.NewQuad(rdf.DefaultGraph, nil, nil, nil), nil)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, rdf.NewTypedLiteral("3", rdf.XSDNamespace+"integer"), got[0].Object)
		})
	}
}

func TestQueryBuilder(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := setupGraph(t, open)
			got, err := g.Query().
				Subject(iri("carol")).
				Predicate(iri("knows")).
				Limit(10).
				Execute(context.Background())
			require.NoError(t, err)
			assert.Equal(t, sorted(fixture[3:5]), sorted(got))

			got, err = g.Query().
				Term(cql.ColObject, `"42"^^xsd:int`).
				Execute(context.Background())
			require.NoError(t, err)
			assert.Equal(t, sorted(fixture[2:3]), sorted(got))
		})
	}
}

func TestQueryBuilderErrors(t *testing.T) {
	s, err := badgerstore.Open(badgerstore.InMemoryConfig())
	require.NoError(t, err)
	g := New(s, ks)
	defer g.Close()

	_, err = g.Query().Term(cql.ColObject, `"unterminated`).Execute(context.Background())
	assert.ErrorIs(t, err, rdf.ErrInvalidTerm)

	_, err = g.Query().Term(cql.ColLang, "<http://x>").Execute(context.Background())
	assert.Error(t, err)

	qp, err := g.Query().Graph(iri("g1")).Predicate(iri("p")).Plan()
	require.NoError(t, err)
	assert.Equal(t, cql.POGS, qp.Table())
	assert.True(t, qp.HasGaps())
}

func TestWhereIsSQLOnly(t *testing.T) {
	ctx := context.Background()
	s, err := sqlitestore.Open(filepath.Join(t.TempDir(), "where.db"))
	require.NoError(t, err)
	g := New(s, ks)
	defer g.Close()
	for _, q := range fixture {
		require.NoError(t, g.Add(ctx, q))
	}
	got, err := g.Query().Graph(iri("g1")).Where("lang = 'en'").Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, sorted(fixture[1:2]), sorted(got))

	b, err := badgerstore.Open(badgerstore.InMemoryConfig())
	require.NoError(t, err)
	bg := New(b, ks)
	defer bg.Close()
	_, err = bg.Query().Graph(iri("g1")).Where("lang = 'en'").Execute(ctx)
	assert.ErrorIs(t, err, store.ErrUnsupportedPredicate)
}

func TestExplain(t *testing.T) {
	p, err := Explain(ks, rdf.NewQuad(iri("g"), nil, iri("p"), nil), nil)
	require.NoError(t, err)
	assert.Equal(t, "POGS", p.Table)
	assert.True(t, p.HasGaps)
	require.Len(t, p.Cascade, 3)
	assert.Equal(t, "predicate", p.Cascade[0].Column)
	assert.True(t, p.Cascade[0].Bound)
	assert.Equal(t, PlanLevel{Column: "object"}, p.Cascade[1])
	assert.Equal(t, "graph", p.Cascade[2].Column)
	assert.Empty(t, p.Insert)

	p, err = Explain(ks, fixture[0], &cql.QueryInfo{Limit: 5})
	require.NoError(t, err)
	assert.False(t, p.HasGaps)
	assert.Empty(t, p.Cascade)
	assert.True(t, strings.HasSuffix(p.Query, " LIMIT 5"))
	assert.True(t, strings.HasPrefix(p.Insert, "BEGIN BATCH"))
	assert.True(t, strings.HasPrefix(p.Delete, "BEGIN BATCH"))

	_, err = Explain(ks, rdf.NewQuad(rdf.NewLiteral("x"), nil, nil, nil), nil)
	assert.ErrorIs(t, err, rdf.ErrUnsupportedPosition)
}
