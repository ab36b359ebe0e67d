package orders

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"orderscope/pkg/platform/sentinel"
)

// MemorySource is an in-memory Source for tests and local development.
type MemorySource struct {
	mu       sync.RWMutex
	records  []Record
	pageSize int

	// failuresLeft injects transient errors on the next N calls so retry
	// behavior can be exercised.
	failuresLeft int
}

// NewMemorySource builds a MemorySource with the given page size.
func NewMemorySource(pageSize int, records ...Record) *MemorySource {
	if pageSize <= 0 {
		pageSize = 50
	}
	s := &MemorySource{pageSize: pageSize}
	s.Add(records...)
	return s
}

// Add appends records, keeping the set sorted by creation time.
func (s *MemorySource) Add(records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].CreatedAt().Before(s.records[j].CreatedAt())
	})
}

// FailNext makes the next n calls return a transient error.
func (s *MemorySource) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failuresLeft = n
}

func (s *MemorySource) takeFailure() error {
	if s.failuresLeft > 0 {
		s.failuresLeft--
		return fmt.Errorf("memory source: %w", sentinel.ErrTransient)
	}
	return nil
}

// ListOrders returns one page of records inside [since, until].
func (s *MemorySource) ListOrders(ctx context.Context, since, until time.Time, cursor string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	s.mu.Lock()
	if err := s.takeFailure(); err != nil {
		s.mu.Unlock()
		return Page{}, err
	}
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var window []Record
	for _, r := range s.records {
		created := r.CreatedAt()
		if created.IsZero() {
			continue
		}
		if created.Before(since) || created.After(until) {
			continue
		}
		window = append(window, r)
	}

	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return Page{}, fmt.Errorf("invalid cursor %q", cursor)
		}
		start = n
	}
	if start >= len(window) {
		return Page{}, nil
	}

	end := start + s.pageSize
	next := ""
	if end < len(window) {
		next = strconv.Itoa(end)
	} else {
		end = len(window)
	}

	page := make([]Record, end-start)
	copy(page, window[start:end])
	return Page{Orders: page, NextCursor: next}, nil
}

// GetOrder returns the record with the given ID, or sentinel.ErrNotFound.
func (s *MemorySource) GetOrder(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID() == id {
			return r, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// CancelOrder marks the record cancelled and tags it with the reason.
func (s *MemorySource) CancelOrder(ctx context.Context, id, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.ID() == id {
			r["cancelled_at"] = time.Now().UTC().Format(time.RFC3339)
			r["cancel_reason"] = reason
			return nil
		}
	}
	return sentinel.ErrNotFound
}
