package cqlsession

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync"
)

// Recorder is a Querier that writes every statement to w, one per line, and
// answers queries with no rows. It backs dry runs.
type Recorder struct {
	mu  sync.Mutex
	w   io.Writer
	log []string
}

func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

func (r *Recorder) record(stmt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, stmt)
	if r.w == nil {
		return nil
	}
	_, err := fmt.Fprintln(r.w, stmt)
	return err
}

func (r *Recorder) Exec(_ context.Context, stmt string) error {
	return r.record(stmt)
}

func (r *Recorder) Query(_ context.Context, stmt string) iter.Seq2[Scanner, error] {
	return func(yield func(Scanner, error) bool) {
		if err := r.record(stmt); err != nil {
			yield(nil, err)
		}
	}
}

// Statements returns a copy of everything recorded so far.
func (r *Recorder) Statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}
