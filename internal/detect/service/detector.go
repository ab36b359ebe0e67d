// Package service composes extraction, classification, and the inference
// strategies into a single confidence-scored detection.
package service

import (
	"context"
	"log/slog"
	"strings"

	"orderscope/internal/detect"
	"orderscope/internal/detect/metrics"
	"orderscope/internal/detect/strategy"
	"orderscope/internal/geo"
	"orderscope/internal/ipintel"
	"orderscope/internal/orders"
)

const (
	// directConfidence applies to a non-suspicious directly-asserted IP.
	// Direct assertions are the most trustworthy signal and short-circuit
	// the strategy chain.
	directConfidence = 0.8
	// suspiciousDirectConfidence keeps a flagged direct hit in the attempt
	// list so strategies can outscore it without the signal being lost.
	suspiciousDirectConfidence = 0.4
)

// Detector scores detection attempts for a single order.
type Detector struct {
	strategies []strategy.Strategy
	locator    geo.Locator
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Detector.
type Option func(*Detector)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Detector) {
		d.metrics = m
	}
}

// WithStrategies overrides the default strategy list. Order is priority.
func WithStrategies(strategies []strategy.Strategy) Option {
	return func(d *Detector) {
		d.strategies = strategies
	}
}

// WithLocator enables the geolocation cross-check on inferred IPs. The
// detector works identically without one; the cross-check only annotates.
func WithLocator(l geo.Locator) Option {
	return func(d *Detector) {
		d.locator = l
	}
}

// New constructs a Detector with the default strategy chain.
func New(opts ...Option) *Detector {
	d := &Detector{
		strategies: strategy.Default(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectIP runs the full detection pipeline for one order. sc carries the
// similar-order signals for the behavioral strategy; a zero Context is valid.
// The call never fails: the worst outcome is a no_ip_available result.
func (d *Detector) DetectIP(ctx context.Context, order orders.Record, sc strategy.Context) detect.Result {
	var attempts []detect.Candidate

	if ip, source := ipintel.Extract(order); ip != "" {
		reason := ipintel.PatternReason(ip)
		if reason == "" {
			attempts = append(attempts, detect.Candidate{
				IP:         ip,
				Source:     source,
				Confidence: directConfidence,
				Method:     detect.MethodDirect,
			})
			return d.finish(ctx, order, attempts)
		}
		// Flag, don't drop: the classifier is heuristic and the caller
		// needs to see what was asserted.
		attempts = append(attempts, detect.Candidate{
			IP:         ip,
			Source:     source,
			Confidence: suspiciousDirectConfidence,
			Suspicious: true,
			Method:     detect.MethodDirect,
			Detail:     reason,
		})
	}

	for _, s := range d.strategies {
		out := strategy.Run(ctx, s, order, sc)
		cand := detect.Candidate{
			IP:         out.IP,
			Source:     s.Name(),
			Confidence: out.Confidence,
			Method:     out.Method,
			Detail:     strings.Join(out.Details, "; "),
		}
		if out.IP != "" {
			cand.Suspicious = ipintel.IsSuspicious(out.IP)
		}
		attempts = append(attempts, cand)
	}

	return d.finish(ctx, order, attempts)
}

// finish selects the winning attempt and assembles the composite result.
// Ties keep the earliest attempt, which encodes the strategy priority order.
func (d *Detector) finish(ctx context.Context, order orders.Record, attempts []detect.Candidate) detect.Result {
	best := -1
	for i, a := range attempts {
		if a.IP == "" {
			continue
		}
		if best == -1 || a.Confidence > attempts[best].Confidence {
			best = i
		}
	}

	if best == -1 {
		result := detect.Result{
			Method:         detect.MethodNone,
			Attempts:       attempts,
			Recommendation: detect.RecommendationNoIP,
		}
		d.record(order, result)
		return result
	}

	if note := d.crossCheck(ctx, order, attempts[best]); note != "" {
		if attempts[best].Detail == "" {
			attempts[best].Detail = note
		} else {
			attempts[best].Detail += "; " + note
		}
	}

	winner := attempts[best]
	recommendation := detect.RecommendationFor(winner.Confidence)
	if winner.Suspicious && recommendation != detect.RecommendationAvoid {
		recommendation = detect.RecommendationExtremeCaution
	}

	result := detect.Result{
		FinalIP:         winner.IP,
		FinalConfidence: winner.Confidence,
		Method:          winner.Method,
		Attempts:        attempts,
		Recommendation:  recommendation,
	}
	d.record(order, result)
	return result
}

// crossCheck asks the locator whether an inferred IP lands in the order's
// shipping country. Disagreement annotates the attempt; it never changes the
// winner, and lookup failures are ignored.
func (d *Detector) crossCheck(ctx context.Context, order orders.Record, winner detect.Candidate) string {
	if d.locator == nil || winner.Method == detect.MethodDirect {
		return ""
	}
	country := order.CountryCode()
	if country == "" {
		return ""
	}
	loc, err := d.locator.Locate(ctx, winner.IP)
	if err != nil || loc.CountryCode == "" {
		return ""
	}
	if strings.EqualFold(loc.CountryCode, country) {
		return "geo cross-check agrees: " + strings.ToUpper(loc.CountryCode)
	}
	return "geo cross-check disagrees: located " + strings.ToUpper(loc.CountryCode) + ", order ships to " + country
}

func (d *Detector) record(order orders.Record, result detect.Result) {
	if d.metrics != nil {
		suspicious := false
		for _, a := range result.Attempts {
			if a.IP == result.FinalIP && a.Suspicious {
				suspicious = true
				break
			}
		}
		m := string(result.Method)
		d.metrics.RecordDetection(m, result.FinalConfidence, suspicious)
	}
	d.logger.Debug("ip detection finished",
		"order_id", order.ID(),
		"method", result.Method,
		"confidence", result.FinalConfidence,
		"recommendation", result.Recommendation,
	)
}
