package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"orderscope/internal/cache/metrics"
	"orderscope/pkg/platform/sentinel"
)

// envelope wraps every stored payload with its write time so Get can enforce
// the caller's TTL even when the backing store disagrees (redis clock skew,
// or a shorter TTL than the one the entry was written with).
type envelope struct {
	WrittenAt time.Time       `json:"written_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Layer is the cache facade the engine talks to. Backend faults are logged
// and counted but never surfaced: Get degrades to a miss, Set and Delete to
// a no-op.
type Layer struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Layer.
type Option func(*Layer)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Layer) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Layer) {
		l.metrics = m
	}
}

// NewLayer wraps a backing store.
func NewLayer(store Store, opts ...Option) (*Layer, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	l := &Layer{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Get returns the cached payload for (prefix, params) if one exists and is
// younger than ttl. The second return reports whether the lookup hit.
func (l *Layer) Get(ctx context.Context, prefix string, ttl time.Duration, params map[string]string) ([]byte, bool) {
	key := Key(prefix, params)

	raw, err := l.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) && !errors.Is(err, sentinel.ErrExpired) {
			l.fault(ctx, "get", key, err)
		}
		l.miss(prefix)
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Corrupt entry: drop it so the next write starts clean.
		_ = l.store.Delete(ctx, key)
		l.fault(ctx, "decode", key, err)
		l.miss(prefix)
		return nil, false
	}

	if age := l.now().Sub(env.WrittenAt); age > ttl {
		_ = l.store.Delete(ctx, key)
		l.miss(prefix)
		return nil, false
	}

	if l.metrics != nil {
		l.metrics.HitsTotal.WithLabelValues(prefix).Inc()
	}
	return env.Payload, true
}

// Set stores value under (prefix, params) for ttl. Returns false when the
// write did not take; callers do not treat that as an error.
func (l *Layer) Set(ctx context.Context, prefix string, value []byte, ttl time.Duration, params map[string]string) bool {
	if ttl <= 0 || !json.Valid(value) {
		return false
	}
	key := Key(prefix, params)

	raw, err := json.Marshal(envelope{WrittenAt: l.now(), Payload: value})
	if err != nil {
		l.fault(ctx, "encode", key, err)
		return false
	}

	if err := l.store.Set(ctx, key, raw, ttl); err != nil {
		l.fault(ctx, "set", key, err)
		return false
	}
	if l.metrics != nil {
		l.metrics.WritesTotal.WithLabelValues(prefix).Inc()
	}
	return true
}

// Delete removes a single entry.
func (l *Layer) Delete(ctx context.Context, prefix string, params map[string]string) bool {
	key := Key(prefix, params)
	if err := l.store.Delete(ctx, key); err != nil {
		l.fault(ctx, "delete", key, err)
		return false
	}
	return true
}

// DeletePattern removes every entry matching the glob and reports the count.
func (l *Layer) DeletePattern(ctx context.Context, pattern string) int {
	removed, err := l.store.DeletePattern(ctx, pattern)
	if err != nil {
		l.fault(ctx, "delete_pattern", pattern, err)
	}
	if l.metrics != nil && removed > 0 {
		l.metrics.InvalidationsTotal.Add(float64(removed))
	}
	return removed
}

// InvalidateStore removes every cached entry scoped to one store reference.
func (l *Layer) InvalidateStore(ctx context.Context, storeRef string) int {
	return l.DeletePattern(ctx, StorePattern(storeRef))
}

func (l *Layer) miss(prefix string) {
	if l.metrics != nil {
		l.metrics.MissesTotal.WithLabelValues(prefix).Inc()
	}
}

func (l *Layer) fault(ctx context.Context, op, key string, err error) {
	if l.metrics != nil {
		l.metrics.ErrorsTotal.WithLabelValues(op).Inc()
	}
	l.logger.WarnContext(ctx, "cache backend fault", "op", op, "key", key, "error", err)
}
