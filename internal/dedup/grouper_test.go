package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderscope/internal/orders"
)

func groupOrder(id, email, created string) orders.Record {
	return orders.Record{
		"id":         id,
		"created_at": created,
		"customer":   map[string]any{"email": email},
	}
}

func TestGroupByIP(t *testing.T) {
	entries := []OrderIP{
		{Order: groupOrder("1", "a@example.com", "2026-08-01T10:00:00Z"), IP: "203.0.113.7"},
		{Order: groupOrder("2", "b@example.com", "2026-08-03T10:00:00Z"), IP: "203.0.113.7"},
		{Order: groupOrder("3", "a@example.com", "2026-08-05T10:00:00Z"), IP: "203.0.113.7"},
		{Order: groupOrder("4", "c@example.com", "2026-08-02T10:00:00Z"), IP: "198.51.100.9"},
		{Order: groupOrder("5", "c@example.com", "2026-08-04T10:00:00Z"), IP: "198.51.100.9"},
		{Order: groupOrder("6", "d@example.com", "2026-08-02T10:00:00Z"), IP: "192.0.2.55"},
	}

	groups := GroupByIP(entries, 2)
	require.Len(t, groups, 2, "the singleton bucket is dropped")

	assert.Equal(t, "203.0.113.7", groups[0].IP, "largest group first")
	assert.Equal(t, 3, groups[0].OrderCount)
	assert.Equal(t, 2, groups[0].UniqueCustomers)
	assert.Equal(t, "2026-08-01T10:00:00Z", groups[0].FirstOrderAt.Format("2006-01-02T15:04:05Z"))
	assert.Equal(t, "2026-08-05T10:00:00Z", groups[0].LastOrderAt.Format("2006-01-02T15:04:05Z"))

	assert.Equal(t, "198.51.100.9", groups[1].IP)
	assert.Equal(t, 1, groups[1].UniqueCustomers)
}

func TestGroupByIPMinOrders(t *testing.T) {
	entries := []OrderIP{
		{Order: groupOrder("1", "a@example.com", "2026-08-01T10:00:00Z"), IP: "203.0.113.7"},
		{Order: groupOrder("2", "b@example.com", "2026-08-02T10:00:00Z"), IP: "203.0.113.7"},
		{Order: groupOrder("3", "c@example.com", "2026-08-03T10:00:00Z"), IP: "203.0.113.7"},
	}

	assert.Len(t, GroupByIP(entries, 3), 1)
	assert.Empty(t, GroupByIP(entries, 4))

	// A floor below 2 is clamped: singletons never group.
	single := []OrderIP{{Order: groupOrder("1", "a@example.com", "2026-08-01T10:00:00Z"), IP: "192.0.2.1"}}
	assert.Empty(t, GroupByIP(single, 1))
}

func TestGroupByIPSkipsMissingIPs(t *testing.T) {
	entries := []OrderIP{
		{Order: groupOrder("1", "a@example.com", "2026-08-01T10:00:00Z"), IP: ""},
		{Order: groupOrder("2", "b@example.com", "2026-08-02T10:00:00Z"), IP: ""},
	}
	assert.Empty(t, GroupByIP(entries, 2))
}

func TestGroupByIPSuspiciousSticks(t *testing.T) {
	entries := []OrderIP{
		{Order: groupOrder("1", "a@example.com", "2026-08-01T10:00:00Z"), IP: "203.0.113.7", Suspicious: true},
		{Order: groupOrder("2", "b@example.com", "2026-08-02T10:00:00Z"), IP: "203.0.113.7"},
	}
	groups := GroupByIP(entries, 2)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].Suspicious, "one flagged order taints the group")
}

func TestGroupByIPAnonymousOrdersCountOnce(t *testing.T) {
	entries := []OrderIP{
		{Order: orders.Record{"id": "1", "created_at": "2026-08-01T10:00:00Z"}, IP: "203.0.113.7"},
		{Order: orders.Record{"id": "2", "created_at": "2026-08-02T10:00:00Z"}, IP: "203.0.113.7"},
	}
	groups := GroupByIP(entries, 2)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].UniqueCustomers)
}
