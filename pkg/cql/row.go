package cql

import (
	"fmt"

	"github.com/duynguyendang/quadcql/pkg/rdf"
)

// Row is one result of a find query, in SELECT list order.
type Row struct {
	Subject   []byte
	Predicate []byte
	Object    []byte
	Graph     []byte
	Lang      string
	Datatype  string
}

// Quad decodes the row back into terms.
func (r Row) Quad() (rdf.Quad, error) {
	var q rdf.Quad
	var err error
	if q.Subject, err = rdf.Decode(r.Subject, "", ""); err != nil {
		return rdf.Quad{}, fmt.Errorf("subject: %w", err)
	}
	if q.Predicate, err = rdf.Decode(r.Predicate, "", ""); err != nil {
		return rdf.Quad{}, fmt.Errorf("predicate: %w", err)
	}
	if q.Object, err = rdf.Decode(r.Object, r.Lang, r.Datatype); err != nil {
		return rdf.Quad{}, fmt.Errorf("object: %w", err)
	}
	if q.Graph, err = rdf.Decode(r.Graph, "", ""); err != nil {
		return rdf.Quad{}, fmt.Errorf("graph: %w", err)
	}
	return q, nil
}
