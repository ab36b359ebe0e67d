// Package notify publishes duplicate-order events to interested downstream
// consumers. Publishing is fire-and-forget: the correlator never waits on a
// broker, and a dead broker never fails a detection run.
package notify

import (
	"context"
	"time"
)

// DuplicateEvent describes one resolved duplicate pair.
type DuplicateEvent struct {
	StoreRef         string    `json:"store_ref"`
	CustomerPhone    string    `json:"customer_phone"`
	OriginalOrderID  string    `json:"original_order_id"`
	DuplicateOrderID string    `json:"duplicate_order_id"`
	CommonProducts   []string  `json:"common_products"`
	MatchCriteria    []string  `json:"match_criteria"`
	DaysBetween      int       `json:"days_between"`
	DetectedAt       time.Time `json:"detected_at"`
}

// Publisher emits duplicate events. Implementations must not block on
// delivery and must not surface broker failures to the caller.
type Publisher interface {
	DuplicateFound(ctx context.Context, event DuplicateEvent)
}

// Nop is the default Publisher when no broker is configured.
type Nop struct{}

func (Nop) DuplicateFound(context.Context, DuplicateEvent) {}
