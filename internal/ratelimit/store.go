package ratelimit

import (
	"context"
	"time"
)

// Store counts requests per key inside a fixed window. Incr atomically
// increments the counter for key, starting a new window when none is live,
// and returns the count after the increment plus the moment the window
// resets. There is no separate read: counting and checking are one step so
// two concurrent callers can never both observe "one slot left".
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}
