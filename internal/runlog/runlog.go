// Package runlog records per-run telemetry for the analytics engine: one
// Summary per operation run, kept for later inspection and fed into alerts.
package runlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Summary is the telemetry of one engine run.
type Summary struct {
	RunID         uuid.UUID     `json:"run_id"`
	Operation     string        `json:"operation"`
	StoreRef      string        `json:"store_ref"`
	WindowDays    int           `json:"window_days"`
	OrdersScanned int           `json:"orders_scanned"`
	Detected      int           `json:"detected"`
	Suspicious    int           `json:"suspicious"`
	Duplicates    int           `json:"duplicates"`
	Errors        int           `json:"errors"`
	CacheHit      bool          `json:"cache_hit"`
	Degraded      bool          `json:"degraded"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
}

// ErrorRate is the share of scanned orders that failed processing.
func (s Summary) ErrorRate() float64 {
	if s.OrdersScanned == 0 {
		return 0
	}
	return float64(s.Errors) / float64(s.OrdersScanned)
}

// SuspiciousRate is the share of detected IPs classified as infrastructure.
func (s Summary) SuspiciousRate() float64 {
	if s.Detected == 0 {
		return 0
	}
	return float64(s.Suspicious) / float64(s.Detected)
}

// Store persists run summaries. Append failures are the recorder's problem;
// they never fail the run that produced the summary.
type Store interface {
	Append(ctx context.Context, summary Summary) error
	Recent(ctx context.Context, limit int) ([]Summary, error)
}
