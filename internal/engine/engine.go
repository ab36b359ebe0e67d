// Package engine exposes the analytics operation surface: single-order IP
// detection, duplicate correlation over a historical window, IP grouping, and
// cache invalidation. It owns the control flow between the rate limiter, the
// cache layer, the order source, and the detection pipeline.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"orderscope/internal/cache"
	"orderscope/internal/dedup"
	"orderscope/internal/detect"
	"orderscope/internal/detect/service"
	"orderscope/internal/detect/strategy"
	"orderscope/internal/orders"
	"orderscope/internal/ratelimit"
	"orderscope/internal/runlog"
	dErrors "orderscope/pkg/domain-errors"
	"orderscope/pkg/platform/sentinel"
)

const (
	defaultMaxWindowDays = 90
	defaultWorkers       = 8
	defaultCallTimeout   = 10 * time.Second

	defaultSearchTTL = 5 * time.Minute
	defaultDetailTTL = 15 * time.Minute
	defaultProbeTTL  = time.Minute

	prefixDuplicates = "duplicates"
	prefixGroups     = "groups"
	prefixDetail     = "detail"
	prefixProbe      = "probe"
)

// TTLs bounds cache freshness per result class.
type TTLs struct {
	Search time.Duration
	Detail time.Duration
	Probe  time.Duration
}

// Engine wires the full pipeline. All collaborators except the order source
// have working in-process defaults, so a bare Engine over a MemorySource is a
// complete system.
type Engine struct {
	source     orders.Source
	fetcher    *orders.Fetcher
	detector   *service.Detector
	correlator *dedup.Correlator
	cache      *cache.Layer
	limiter    *ratelimit.Limiter
	recorder   *runlog.Recorder
	logger     *slog.Logger
	tracer     trace.Tracer

	workers       int
	maxWindowDays int
	callTimeout   time.Duration
	ttls          TTLs
	now           func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithDetector(d *service.Detector) Option {
	return func(e *Engine) { e.detector = d }
}

func WithCorrelator(c *dedup.Correlator) Option {
	return func(e *Engine) { e.correlator = c }
}

func WithCache(l *cache.Layer) Option {
	return func(e *Engine) { e.cache = l }
}

func WithLimiter(l *ratelimit.Limiter) Option {
	return func(e *Engine) { e.limiter = l }
}

func WithRecorder(r *runlog.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithWorkers bounds per-order detection parallelism during batch runs.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithMaxWindowDays overrides the historical window ceiling.
func WithMaxWindowDays(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxWindowDays = n
		}
	}
}

// WithCallTimeout bounds each upstream order-source call.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.callTimeout = d
		}
	}
}

func WithTTLs(ttls TTLs) Option {
	return func(e *Engine) {
		if ttls.Search > 0 {
			e.ttls.Search = ttls.Search
		}
		if ttls.Detail > 0 {
			e.ttls.Detail = ttls.Detail
		}
		if ttls.Probe > 0 {
			e.ttls.Probe = ttls.Probe
		}
	}
}

// New constructs an Engine over the given order source.
func New(source orders.Source, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("order source is required")
	}

	e := &Engine{
		source:        source,
		logger:        slog.Default(),
		tracer:        otel.Tracer("orderscope/engine"),
		workers:       defaultWorkers,
		maxWindowDays: defaultMaxWindowDays,
		callTimeout:   defaultCallTimeout,
		ttls: TTLs{
			Search: defaultSearchTTL,
			Detail: defaultDetailTTL,
			Probe:  defaultProbeTTL,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.detector == nil {
		e.detector = service.New(service.WithLogger(e.logger))
	}
	if e.correlator == nil {
		e.correlator = dedup.NewCorrelator(dedup.WithLogger(e.logger))
	}
	if e.cache == nil {
		layer, err := cache.NewLayer(cache.NewMemoryStore(), cache.WithLogger(e.logger))
		if err != nil {
			return nil, err
		}
		e.cache = layer
	}
	if e.limiter == nil {
		limiter, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.WithLogger(e.logger))
		if err != nil {
			return nil, err
		}
		e.limiter = limiter
	}
	if e.recorder == nil {
		e.recorder = runlog.NewRecorder(runlog.NewMemoryStore(), runlog.WithLogger(e.logger))
	}

	e.fetcher = orders.NewFetcher(source, e.callTimeout, e.logger)
	return e, nil
}

// DetectIP runs the detection pipeline for one order already in hand.
func (e *Engine) DetectIP(ctx context.Context, actorID string, order orders.Record) (detect.Result, error) {
	ctx, span := e.tracer.Start(ctx, "engine.DetectIP",
		trace.WithAttributes(attribute.String("order.id", order.ID())))
	defer span.End()

	if len(order) == 0 {
		return detect.Result{}, dErrors.New(dErrors.CodeInvalidInput, "order is required")
	}
	if err := e.allow(ctx, actorID, ratelimit.OpDetect); err != nil {
		return detect.Result{}, err
	}

	result := e.detector.DetectIP(ctx, order, strategy.Context{})
	span.SetAttributes(
		attribute.String("detect.method", string(result.Method)),
		attribute.Float64("detect.confidence", result.FinalConfidence),
	)
	return result, nil
}

// GetOrder returns one order by id through the detail cache. Detail entries
// are keyed under the store reference so InvalidateStoreCache evicts them
// together with the search results.
func (e *Engine) GetOrder(ctx context.Context, actorID, storeRef, orderID string) (orders.Record, error) {
	ctx, span := e.tracer.Start(ctx, "engine.GetOrder",
		trace.WithAttributes(
			attribute.String("store.ref", storeRef),
			attribute.String("order.id", orderID)))
	defer span.End()

	if storeRef == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "store reference is required")
	}
	if orderID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "order id is required")
	}
	if err := e.allow(ctx, actorID, ratelimit.OpOrderDetail); err != nil {
		return nil, err
	}

	params := map[string]string{"store": storeRef, "order_id": orderID}
	if raw, ok := e.cache.Get(ctx, prefixDetail, e.ttls.Detail, params); ok {
		var record orders.Record
		if err := json.Unmarshal(raw, &record); err == nil {
			return record, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	record, err := e.source.GetOrder(callCtx, orderID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "get order")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "get order")
	}

	if raw, err := json.Marshal(record); err == nil {
		e.cache.Set(ctx, prefixDetail, raw, e.ttls.Detail, params)
	}
	return record, nil
}

// InvalidateStoreCache drops every cached result for one store reference.
func (e *Engine) InvalidateStoreCache(ctx context.Context, storeRef string) (int, error) {
	ctx, span := e.tracer.Start(ctx, "engine.InvalidateStoreCache",
		trace.WithAttributes(attribute.String("store.ref", storeRef)))
	defer span.End()

	if storeRef == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "store reference is required")
	}

	removed := e.cache.InvalidateStore(ctx, storeRef)
	e.logger.InfoContext(ctx, "store cache invalidated", "store_ref", storeRef, "removed", removed)
	return removed, nil
}

// RecentRuns lists the latest recorded run summaries, newest first.
func (e *Engine) RecentRuns(ctx context.Context, limit int) ([]runlog.Summary, error) {
	return e.recorder.Recent(ctx, limit)
}

// SourceHealthy probes the order source, caching the verdict briefly so
// health endpoints do not hammer the upstream.
func (e *Engine) SourceHealthy(ctx context.Context) bool {
	if raw, ok := e.cache.Get(ctx, prefixProbe, e.ttls.Probe, nil); ok {
		return string(raw) == `"ok"`
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	until := e.now()
	_, err := e.source.ListOrders(callCtx, until.Add(-time.Hour), until, "")
	if err != nil {
		e.logger.WarnContext(ctx, "order source probe failed", "error", err)
		return false
	}

	e.cache.Set(ctx, prefixProbe, []byte(`"ok"`), e.ttls.Probe, nil)
	return true
}

// allow consumes a rate-limit slot and translates a rejection into the
// domain error surfaced to callers.
func (e *Engine) allow(ctx context.Context, actorID string, op ratelimit.Operation) error {
	result, err := e.limiter.Check(ctx, actorID, op)
	if err != nil {
		return err
	}
	if !result.Allowed {
		return dErrors.Newf(dErrors.CodeRateLimited,
			"rate limit exceeded for %s, retry after %s", op,
			time.Until(result.ResetAt).Round(time.Second))
	}
	return nil
}

// validateWindow rejects bad windows before any network call happens.
func (e *Engine) validateWindow(storeRef string, windowDays int) error {
	if storeRef == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "store reference is required")
	}
	if windowDays < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "window must cover at least one day")
	}
	if windowDays > e.maxWindowDays {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"window of %d days exceeds the %d day maximum", windowDays, e.maxWindowDays)
	}
	return nil
}

func windowParams(storeRef string, windowDays int) map[string]string {
	return map[string]string{
		"store":       storeRef,
		"window_days": strconv.Itoa(windowDays),
	}
}
