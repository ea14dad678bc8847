// Package memory is an in-process Exporter. It backs local development
// (EXPORT_BACKEND=memory) and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tracker/internal/core"
	ports "tracker/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	exports []ports.Export
	rows    int
}

var _ ports.Exporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Export keeps a copy of e and returns a synthetic range reference.
func (s *Store) Export(_ context.Context, e ports.Export) (ports.Result, error) {
	cp := e
	cp.Expenses = append([]core.Expense(nil), e.Expenses...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports = append(s.exports, cp)
	first := s.rows + 1
	s.rows += len(cp.Expenses)
	return ports.Result{
		Range: fmt.Sprintf("mem:%d-%d", first, s.rows),
		Rows:  len(cp.Expenses),
	}, nil
}

// Exports returns every export received so far.
func (s *Store) Exports() []ports.Export {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Export(nil), s.exports...)
}
