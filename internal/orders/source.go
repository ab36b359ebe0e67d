package orders

import (
	"context"
	"time"
)

// Page is one cursor page of orders from the source.
type Page struct {
	Orders     []Record
	NextCursor string
}

// Source is the port to the upstream order platform. Implementations are
// vendor clients; the engine only depends on this interface.
type Source interface {
	// ListOrders returns one page of orders created inside [since, until].
	// An empty cursor requests the first page; an empty NextCursor ends
	// the walk.
	ListOrders(ctx context.Context, since, until time.Time, cursor string) (Page, error)

	// GetOrder returns a single order, or sentinel.ErrNotFound.
	GetOrder(ctx context.Context, id string) (Record, error)

	// CancelOrder cancels an order upstream with an audit reason.
	CancelOrder(ctx context.Context, id, reason string) error
}
