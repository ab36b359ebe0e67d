package runlog

import (
	"context"
	"sync"
)

const defaultCapacity = 256

// MemoryStore keeps the most recent summaries in a bounded ring. The default
// store when no database is configured.
type MemoryStore struct {
	mu       sync.Mutex
	entries  []Summary
	capacity int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{capacity: defaultCapacity}
}

func (s *MemoryStore) Append(_ context.Context, summary Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, summary)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}

	// Newest first.
	out := make([]Summary, 0, limit)
	for i := len(s.entries) - 1; i >= len(s.entries)-limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}
