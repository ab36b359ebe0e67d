// Package strategy implements the alternative IP inference strategies that
// run when an order carries no directly-asserted customer IP. Strategies are
// independent and composable: the scoring service runs them as a fixed
// priority-ordered list and picks the strongest outcome.
package strategy

import (
	"context"

	"orderscope/internal/detect"
	"orderscope/internal/orders"
)

// Outcome is the result of one strategy run. A zero Outcome (empty IP,
// confidence 0) means the strategy could not contribute.
type Outcome struct {
	IP         string
	Confidence float64
	Method     detect.Method
	Details    []string
}

// Context carries the cross-order signals a strategy may correlate against.
type Context struct {
	// Similar holds orders sharing a customer-identifying key with the
	// order under analysis.
	Similar []orders.Record
	// KnownIPs maps order ID to a previously detected IP for orders in
	// Similar.
	KnownIPs map[string]string
}

// Strategy is one inference capability. Analyze must never panic outward and
// never returns an error: failure is a zero-confidence Outcome.
type Strategy interface {
	Name() string
	Analyze(ctx context.Context, order orders.Record, sc Context) Outcome
}

// Default returns the strategies in their fixed priority order. The order is
// also the tie-break ranking during scoring.
func Default() []Strategy {
	return []Strategy{
		&Geolocation{},
		&Behavioral{},
		&Temporal{},
		&Fallback{},
	}
}

// Run executes a strategy, converting any internal panic into a
// zero-confidence outcome so one bad heuristic can never abort a detection.
func Run(ctx context.Context, s Strategy, order orders.Record, sc Context) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Details: []string{"internal error"}}
		}
	}()
	return s.Analyze(ctx, order, sc)
}
