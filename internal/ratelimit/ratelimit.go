// Package ratelimit enforces per-actor fixed-window quotas on the engine's
// analytics operations. The limiter fails open: a broken quota store slows
// nobody down, it only costs accuracy.
package ratelimit

import (
	"time"
)

// Operation identifies a rate-limited engine operation.
type Operation string

const (
	// OpBulkSearch covers the paged order-window scans behind duplicate
	// detection and IP grouping. The most expensive operation, the tightest
	// quota.
	OpBulkSearch Operation = "bulk_search"
	// OpOrderDetail covers single-order lookups.
	OpOrderDetail Operation = "order_detail"
	// OpDetect covers single-order IP detection.
	OpDetect Operation = "detect"
)

// Quota is a fixed-window allowance for one operation.
type Quota struct {
	Limit  int
	Window time.Duration
}

// DefaultQuotas returns the per-operation allowances used when the caller
// does not override them.
func DefaultQuotas() map[Operation]Quota {
	return map[Operation]Quota{
		OpBulkSearch:  {Limit: 30, Window: time.Minute},
		OpOrderDetail: {Limit: 300, Window: time.Minute},
		OpDetect:      {Limit: 120, Window: time.Minute},
	}
}

// Result is the outcome of a quota check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// Degraded is set when the check was answered by the fallback store or
	// failed open; remaining counts are then approximate.
	Degraded bool
}
