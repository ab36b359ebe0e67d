package engine

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"orderscope/internal/dedup"
	"orderscope/internal/detect"
	"orderscope/internal/detect/strategy"
	"orderscope/internal/ipintel"
	"orderscope/internal/orders"
	"orderscope/internal/ratelimit"
	"orderscope/internal/runlog"
	dErrors "orderscope/pkg/domain-errors"
)

// DetectDuplicates fetches the store's window, runs the detection pipeline,
// and correlates duplicate orders. Results are served from the search cache
// when a fresh entry exists.
func (e *Engine) DetectDuplicates(ctx context.Context, actorID, storeRef string, windowDays int) (dedup.Report, error) {
	ctx, span := e.tracer.Start(ctx, "engine.DetectDuplicates", trace.WithAttributes(
		attribute.String("store.ref", storeRef),
		attribute.Int("window.days", windowDays),
	))
	defer span.End()

	if err := e.validateWindow(storeRef, windowDays); err != nil {
		return dedup.Report{}, err
	}
	if err := e.allow(ctx, actorID, ratelimit.OpBulkSearch); err != nil {
		return dedup.Report{}, err
	}

	started := e.now()
	params := windowParams(storeRef, windowDays)

	if raw, ok := e.cache.Get(ctx, prefixDuplicates, e.ttls.Search, params); ok {
		var report dedup.Report
		if err := json.Unmarshal(raw, &report); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			e.recorder.Record(ctx, e.summarize("detect_duplicates", storeRef, windowDays, started, batchStats{
				scanned: report.OrdersScanned,
			}, len(report.Candidates), true))
			return report, nil
		}
	}

	records, err := e.fetchWindow(ctx, windowDays)
	if err != nil {
		return dedup.Report{}, err
	}

	_, stats := e.detectBatch(ctx, records)
	if err := ctx.Err(); err != nil {
		e.recorder.Record(ctx, e.summarize("detect_duplicates", storeRef, windowDays, started, stats, 0, false))
		return dedup.Report{}, err
	}

	report := e.correlator.FindDuplicates(ctx, storeRef, records)

	if raw, err := json.Marshal(report); err == nil {
		e.cache.Set(ctx, prefixDuplicates, raw, e.ttls.Search, params)
	}
	e.recorder.Record(ctx, e.summarize("detect_duplicates", storeRef, windowDays, started, stats, len(report.Candidates), false))
	return report, nil
}

// GroupOrdersByIP buckets the store's window by resolved IP.
func (e *Engine) GroupOrdersByIP(ctx context.Context, actorID, storeRef string, windowDays, minOrders int) ([]dedup.IPGroup, error) {
	ctx, span := e.tracer.Start(ctx, "engine.GroupOrdersByIP", trace.WithAttributes(
		attribute.String("store.ref", storeRef),
		attribute.Int("window.days", windowDays),
		attribute.Int("min.orders", minOrders),
	))
	defer span.End()

	if err := e.validateWindow(storeRef, windowDays); err != nil {
		return nil, err
	}
	if minOrders < dedup.MinGroupSize {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"minimum group size is %d, got %d", dedup.MinGroupSize, minOrders)
	}
	if err := e.allow(ctx, actorID, ratelimit.OpBulkSearch); err != nil {
		return nil, err
	}

	started := e.now()
	params := windowParams(storeRef, windowDays)
	params["min_orders"] = strconv.Itoa(minOrders)

	if raw, ok := e.cache.Get(ctx, prefixGroups, e.ttls.Search, params); ok {
		var groups []dedup.IPGroup
		if err := json.Unmarshal(raw, &groups); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			e.recorder.Record(ctx, e.summarize("group_orders_by_ip", storeRef, windowDays, started, batchStats{}, 0, true))
			return groups, nil
		}
	}

	records, err := e.fetchWindow(ctx, windowDays)
	if err != nil {
		return nil, err
	}

	detections, stats := e.detectBatch(ctx, records)
	if err := ctx.Err(); err != nil {
		e.recorder.Record(ctx, e.summarize("group_orders_by_ip", storeRef, windowDays, started, stats, 0, false))
		return nil, err
	}

	entries := make([]dedup.OrderIP, 0, len(detections))
	for _, d := range detections {
		if d.err != nil || !d.result.Usable() {
			continue
		}
		entries = append(entries, dedup.OrderIP{
			Order:      d.record,
			IP:         d.result.FinalIP,
			Suspicious: ipintel.IsSuspicious(d.result.FinalIP),
		})
	}
	groups := dedup.GroupByIP(entries, minOrders)

	if raw, err := json.Marshal(groups); err == nil {
		e.cache.Set(ctx, prefixGroups, raw, e.ttls.Search, params)
	}
	e.recorder.Record(ctx, e.summarize("group_orders_by_ip", storeRef, windowDays, started, stats, 0, false))
	return groups, nil
}

// fetchWindow pulls every order created inside the trailing window.
func (e *Engine) fetchWindow(ctx context.Context, windowDays int) ([]orders.Record, error) {
	until := e.now()
	since := until.AddDate(0, 0, -windowDays)
	return e.fetcher.FetchWindow(ctx, since, until)
}

type detection struct {
	record orders.Record
	result detect.Result
	err    error
}

type batchStats struct {
	scanned    int
	detected   int
	suspicious int
	errors     int
}

// detectBatch runs the detection pipeline across records with bounded
// parallelism. A failing order is counted and skipped, never fatal to the
// batch; cancellation stops scheduling and returns whatever completed.
func (e *Engine) detectBatch(ctx context.Context, records []orders.Record) ([]detection, batchStats) {
	index := newBatchIndex(records)
	results := make([]detection, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, record := range records {
		i, record := i, record
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = e.detectOne(gctx, record, index)
			return nil
		})
	}
	_ = g.Wait()

	stats := batchStats{scanned: len(records)}
	for i := range results {
		d := &results[i]
		if d.record == nil {
			// Never scheduled: the batch was cancelled first.
			d.record = records[i]
			d.err = ctx.Err()
		}
		switch {
		case d.err != nil:
			stats.errors++
		case d.result.Usable():
			stats.detected++
			if ipintel.IsSuspicious(d.result.FinalIP) {
				stats.suspicious++
			}
		}
	}
	return results, stats
}

// detectOne isolates a single order's detection, converting malformed input
// into a per-order error instead of a batch failure.
func (e *Engine) detectOne(ctx context.Context, record orders.Record, index *batchIndex) detection {
	d := detection{record: record}
	if record.ID() == "" {
		d.err = dErrors.New(dErrors.CodeInvalidInput, "order has no id")
		e.logger.WarnContext(ctx, "skipping order without id")
		return d
	}
	d.result = e.detector.DetectIP(ctx, record, index.contextFor(record))
	return d
}

// batchIndex precomputes the similar-order signals the behavioral strategy
// feeds on: per-customer order lists and directly-asserted IPs.
type batchIndex struct {
	byCustomer map[string][]orders.Record
	knownIPs   map[string]string
}

func newBatchIndex(records []orders.Record) *batchIndex {
	index := &batchIndex{
		byCustomer: make(map[string][]orders.Record),
		knownIPs:   make(map[string]string),
	}
	for _, r := range records {
		if email := r.Email(); email != "" {
			index.byCustomer[email] = append(index.byCustomer[email], r)
		}
		if ip, _ := ipintel.Extract(r); ip != "" && !ipintel.IsSuspicious(ip) {
			if id := r.ID(); id != "" {
				index.knownIPs[id] = ip
			}
		}
	}
	return index
}

// contextFor returns the strategy context for one order: the customer's
// other orders in the batch plus every known direct IP.
func (b *batchIndex) contextFor(order orders.Record) strategy.Context {
	email := order.Email()
	if email == "" {
		return strategy.Context{}
	}

	var similar []orders.Record
	for _, r := range b.byCustomer[email] {
		if r.ID() != order.ID() {
			similar = append(similar, r)
		}
	}
	if len(similar) == 0 {
		return strategy.Context{}
	}
	return strategy.Context{Similar: similar, KnownIPs: b.knownIPs}
}

func (e *Engine) summarize(operation, storeRef string, windowDays int, started time.Time, stats batchStats, duplicates int, cacheHit bool) runlog.Summary {
	return runlog.Summary{
		Operation:     operation,
		StoreRef:      storeRef,
		WindowDays:    windowDays,
		OrdersScanned: stats.scanned,
		Detected:      stats.detected,
		Suspicious:    stats.suspicious,
		Duplicates:    duplicates,
		Errors:        stats.errors,
		CacheHit:      cacheHit,
		StartedAt:     started,
		Duration:      e.now().Sub(started),
	}
}
