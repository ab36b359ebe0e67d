package orders

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	dErrors "orderscope/pkg/domain-errors"
	"orderscope/pkg/platform/sentinel"
)

const (
	fetchRetries     = 3
	fetchBackoffBase = 100 * time.Millisecond
)

// Fetcher walks cursor pages from a Source with per-call timeouts and capped
// retries for transient failures. Pages are fetched sequentially because the
// cursor chain is inherently ordered; callers parallelize per-order work.
type Fetcher struct {
	source      Source
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewFetcher builds a Fetcher. callTimeout bounds every upstream call.
func NewFetcher(source Source, callTimeout time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{source: source, callTimeout: callTimeout, logger: logger}
}

// FetchWindow returns all orders created inside [since, until].
// Cancellation stops the walk between pages; the partial result is discarded
// and the context error returned, leaving any in-flight call abandoned.
func (f *Fetcher) FetchWindow(ctx context.Context, since, until time.Time) ([]Record, error) {
	var all []Record
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := f.listPage(ctx, since, until, cursor)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Orders...)
		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

func (f *Fetcher) listPage(ctx context.Context, since, until time.Time, cursor string) (Page, error) {
	var lastErr error
	for attempt := 0; attempt < fetchRetries; attempt++ {
		if attempt > 0 {
			backoff := fetchBackoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return Page{}, ctx.Err()
			case <-time.After(backoff):
			}
			f.logger.Warn("retrying order source page",
				"attempt", attempt+1, "cursor", cursor, "error", lastErr)
		}

		callCtx, cancel := context.WithTimeout(ctx, f.callTimeout)
		page, err := f.source.ListOrders(callCtx, since, until, cursor)
		cancel()
		if err == nil {
			return page, nil
		}
		// Caller cancellation is not an upstream failure; surface it bare so
		// callers can tell the two apart.
		if cerr := ctx.Err(); cerr != nil {
			return Page{}, cerr
		}
		if !isTransient(err) {
			return Page{}, dErrors.Wrap(err, dErrors.CodeUpstream, "list orders")
		}
		lastErr = err
	}
	return Page{}, dErrors.Wrap(lastErr, dErrors.CodeUpstream, "list orders: retries exhausted")
}

// isTransient classifies upstream failures that are safe to retry.
func isTransient(err error) bool {
	if errors.Is(err, sentinel.ErrTransient) || errors.Is(err, sentinel.ErrUnavailable) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
