package graph

import (
	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/rdf"
)

// PlanLevel is one key column of a cascading plan. Unbound levels iterate
// the distinct stored values under the levels before them.
type PlanLevel struct {
	Column string `json:"column"`
	Bound  bool   `json:"bound"`
	Value  string `json:"value,omitempty"`
}

// Plan describes how a pattern would run.
type Plan struct {
	Pattern string      `json:"pattern"`
	Table   string      `json:"table"`
	Query   string      `json:"query"`
	HasGaps bool        `json:"has_gaps"`
	Cascade []PlanLevel `json:"cascade,omitempty"`
	Insert  string      `json:"insert,omitempty"`
	Delete  string      `json:"delete,omitempty"`
}

// Explain plans pattern without touching a store. Concrete patterns also
// carry their insert and delete batches.
func Explain(keyspace string, pattern rdf.Quad, info *cql.QueryInfo) (*Plan, error) {
	qp, err := cql.NewQueryPattern(pattern)
	if err != nil {
		return nil, err
	}
	p := &Plan{
		Pattern: pattern.String(),
		Table:   qp.Table().String(),
		Query:   qp.FindQuery(keyspace, info),
		HasGaps: qp.HasGaps(),
	}
	if p.HasGaps {
		keys := qp.KeyValues()
		last := 0
		cols := qp.Table().KeyColumns()
		for i, c := range cols {
			if keys.Bound(c) {
				last = i
			}
		}
		for _, c := range cols[:last+1] {
			lv := PlanLevel{Column: c.String(), Bound: keys.Bound(c)}
			if lv.Bound {
				lv.Value = cql.Hex(keys[c])
			}
			p.Cascade = append(p.Cascade, lv)
		}
	}
	if pattern.IsConcrete() {
		if p.Insert, err = cql.InsertStatement(keyspace, pattern); err != nil {
			return nil, err
		}
		if p.Delete, err = cql.DeleteStatement(keyspace, pattern); err != nil {
			return nil, err
		}
	}
	return p, nil
}
