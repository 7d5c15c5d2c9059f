package rdf

import "fmt"

var (
	ErrInvalidTerm         = fmt.Errorf("invalid term")
	ErrDecode              = fmt.Errorf("cannot decode term")
	ErrUnsupportedLiteral  = fmt.Errorf("unsupported literal encoding")
	ErrUnsupportedPosition = fmt.Errorf("term not allowed in this position")
)
