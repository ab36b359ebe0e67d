package runlog

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"orderscope/internal/runlog/metrics"
)

const (
	// Alert thresholds over one run. Rates above these suggest a broken
	// upstream (errors) or a storefront behind a proxy fleet (suspicious),
	// both worth a human look.
	errorRateThreshold      = 0.25
	suspiciousRateThreshold = 0.50
)

// Recorder turns run summaries into logs, metrics, and stored history.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Recorder.
type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// NewRecorder constructs a Recorder over the given store.
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
	}
	if r.store == nil {
		r.store = NewMemoryStore()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record finalizes and persists one run summary. Always succeeds from the
// caller's view; storage failures are logged and dropped.
func (r *Recorder) Record(ctx context.Context, summary Summary) Summary {
	if summary.RunID == uuid.Nil {
		summary.RunID = uuid.New()
	}

	r.logger.InfoContext(ctx, "run completed",
		"run_id", summary.RunID,
		"operation", summary.Operation,
		"store_ref", summary.StoreRef,
		"window_days", summary.WindowDays,
		"orders_scanned", summary.OrdersScanned,
		"detected", summary.Detected,
		"suspicious", summary.Suspicious,
		"duplicates", summary.Duplicates,
		"errors", summary.Errors,
		"cache_hit", summary.CacheHit,
		"duration", summary.Duration,
	)

	if r.metrics != nil {
		r.metrics.RunsTotal.WithLabelValues(summary.Operation).Inc()
		r.metrics.RunDuration.WithLabelValues(summary.Operation).Observe(summary.Duration.Seconds())
		r.metrics.OrdersScanned.Add(float64(summary.OrdersScanned))
		r.metrics.RunErrorsTotal.Add(float64(summary.Errors))
	}

	r.checkThresholds(ctx, summary)

	if err := r.store.Append(ctx, summary); err != nil {
		r.logger.WarnContext(ctx, "run summary not persisted",
			"run_id", summary.RunID, "error", err)
	}
	return summary
}

// Recent returns the latest stored summaries, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Summary, error) {
	return r.store.Recent(ctx, limit)
}

func (r *Recorder) checkThresholds(ctx context.Context, summary Summary) {
	if rate := summary.ErrorRate(); rate > errorRateThreshold {
		r.alert(ctx, "error_rate", rate, summary)
	}
	if rate := summary.SuspiciousRate(); rate > suspiciousRateThreshold {
		r.alert(ctx, "suspicious_rate", rate, summary)
	}
}

func (r *Recorder) alert(ctx context.Context, kind string, rate float64, summary Summary) {
	if r.metrics != nil {
		r.metrics.AlertsTotal.WithLabelValues(kind).Inc()
	}
	r.logger.WarnContext(ctx, "run threshold exceeded",
		"kind", kind,
		"rate", rate,
		"run_id", summary.RunID,
		"operation", summary.Operation,
		"store_ref", summary.StoreRef,
	)
}
