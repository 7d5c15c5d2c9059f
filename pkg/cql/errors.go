package cql

import (
	"fmt"
)

var (
	// ErrIterationExhausted is returned by KeyEnumerator.Next when no
	// combination is left. Callers must check HasNext first.
	ErrIterationExhausted = fmt.Errorf("key enumeration exhausted")
	ErrWildcardInMutation = fmt.Errorf("mutations require a concrete quad")
	ErrUnknownTable       = fmt.Errorf("unknown table")
)

// StoreReadError wraps a failure of the backing store while discovering the
// distinct values of a key column. It is not retried.
type StoreReadError struct {
	Table  TableName
	Column ColumnName
	Err    error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("distinct %s on %s: %v", e.Column, e.Table, e.Err)
}

func (e *StoreReadError) Unwrap() error {
	return e.Err
}
