// Package memory is an in-memory export destination for tests and
// local development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/flwkf/financeguard/internal/export"
	"github.com/flwkf/financeguard/internal/ledger"
)

type Store struct {
	mu   sync.Mutex
	rows []ledger.Entry

	// FailAppend makes Append return an error, for failure-path tests.
	FailAppend error
}

var _ export.RowAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, e ledger.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAppend != nil {
		return "", s.FailAppend
	}
	s.rows = append(s.rows, e)
	return fmt.Sprintf("row-%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.Entry, len(s.rows))
	copy(out, s.rows)
	return out
}
