package memory

import (
	"context"
	"sync"
)

// Store is an in-memory ReportWriter for local runs and tests.
type Store struct {
	mu   sync.Mutex
	tabs map[string][][]any
}

func New() *Store {
	return &Store{tabs: make(map[string][][]any)}
}

// WriteTab replaces the rows of tab.
func (s *Store) WriteTab(_ context.Context, tab string, rows [][]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([][]any, len(rows))
	for i, r := range rows {
		cp[i] = append([]any(nil), r...)
	}
	s.tabs[tab] = cp
	return nil
}

// Tab returns the rows last written to tab.
func (s *Store) Tab(tab string) ([][]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tabs[tab]
	return rows, ok
}

// Tabs lists the written tab names in no particular order.
func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tabs))
	for k := range s.tabs {
		out = append(out, k)
	}
	return out
}
