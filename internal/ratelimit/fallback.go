package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"orderscope/pkg/platform/circuit"
)

// FallbackStore routes counting to a primary store (redis) and degrades to a
// secondary (memory) while the primary's circuit is open. Counts are not
// migrated between stores; a switch restarts windows, which is acceptable
// for quota enforcement.
type FallbackStore struct {
	primary   Store
	secondary Store
	breaker   *circuit.Breaker
	logger    *slog.Logger
}

// NewFallbackStore wires primary behind a breaker with secondary as refuge.
func NewFallbackStore(primary, secondary Store, logger *slog.Logger) *FallbackStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackStore{
		primary:   primary,
		secondary: secondary,
		breaker:   circuit.New("ratelimit-store"),
		logger:    logger,
	}
}

// Degraded reports whether checks are currently served by the secondary.
func (s *FallbackStore) Degraded() bool {
	return s.breaker.IsOpen()
}

func (s *FallbackStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	if s.breaker.IsOpen() {
		// Probe the primary with the real request; success feeds the
		// breaker's close counter.
		count, resetAt, err := s.primary.Incr(ctx, key, window)
		if err == nil {
			if usePrimary, change := s.breaker.RecordSuccess(); usePrimary {
				if change.Closed {
					s.logger.Info("rate limit store recovered", "breaker", s.breaker.Name())
				}
				return count, resetAt, nil
			}
		} else {
			s.breaker.RecordFailure()
		}
		return s.secondary.Incr(ctx, key, window)
	}

	count, resetAt, err := s.primary.Incr(ctx, key, window)
	if err == nil {
		s.breaker.RecordSuccess()
		return count, resetAt, nil
	}

	useFallback, change := s.breaker.RecordFailure()
	if change.Opened {
		s.logger.Warn("rate limit store failing, switching to in-memory fallback",
			"breaker", s.breaker.Name(), "error", err)
	}
	if useFallback {
		return s.secondary.Incr(ctx, key, window)
	}
	return 0, time.Time{}, err
}
