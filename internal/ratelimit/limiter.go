package ratelimit

import (
	"context"
	"fmt"
	"log/slog"

	"orderscope/internal/ratelimit/metrics"
	dErrors "orderscope/pkg/domain-errors"
)

// Limiter answers "may this actor run this operation now". Checks consume a
// slot whether or not the caller proceeds.
type Limiter struct {
	store   Store
	quotas  map[Operation]Quota
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Limiter.
type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

// WithQuotas replaces the default per-operation allowances.
func WithQuotas(quotas map[Operation]Quota) Option {
	return func(l *Limiter) {
		l.quotas = quotas
	}
}

// New constructs a Limiter over the given store.
func New(store Store, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	l := &Limiter{
		store:  store,
		quotas: DefaultQuotas(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Check consumes one slot for (actor, op). An unknown operation is a caller
// bug and errors; a store failure is an infrastructure fact and fails open.
func (l *Limiter) Check(ctx context.Context, actorID string, op Operation) (Result, error) {
	quota, ok := l.quotas[op]
	if !ok {
		return Result{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown rate limit operation %q", op)
	}
	if actorID == "" {
		actorID = "anonymous"
	}

	key := fmt.Sprintf("osc:rl:%s:%s", op, actorID)
	count, resetAt, err := l.store.Incr(ctx, key, quota.Window)
	if err != nil {
		l.logger.WarnContext(ctx, "rate limit store failed, allowing request",
			"operation", op, "actor", actorID, "error", err)
		if l.metrics != nil {
			l.metrics.FailOpenTotal.Inc()
			l.metrics.ChecksTotal.WithLabelValues(string(op), "fail_open").Inc()
		}
		return Result{Allowed: true, Limit: quota.Limit, Remaining: quota.Limit, Degraded: true}, nil
	}

	remaining := quota.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	result := Result{
		Allowed:   count <= int64(quota.Limit),
		Limit:     quota.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if d, ok := l.store.(*FallbackStore); ok && d.Degraded() {
		result.Degraded = true
	}

	if l.metrics != nil {
		outcome := "allowed"
		if !result.Allowed {
			outcome = "rejected"
		}
		l.metrics.ChecksTotal.WithLabelValues(string(op), outcome).Inc()
	}
	if !result.Allowed {
		l.logger.InfoContext(ctx, "rate limit exceeded",
			"operation", op, "actor", actorID, "limit", quota.Limit, "reset_at", resetAt)
	}
	return result, nil
}
