package dedup

import (
	"sort"

	"orderscope/internal/orders"
)

// OrderIP pairs an order with the IP the detection pipeline resolved for it.
type OrderIP struct {
	Order      orders.Record
	IP         string
	Suspicious bool
}

// MinGroupSize is the floor for minOrders: a single order is never a group.
const MinGroupSize = 2

// GroupByIP buckets orders by resolved IP and keeps buckets holding at least
// minOrders orders. Groups come back largest first so the most shared
// addresses lead the result.
func GroupByIP(entries []OrderIP, minOrders int) []IPGroup {
	if minOrders < MinGroupSize {
		minOrders = MinGroupSize
	}

	buckets := make(map[string]*IPGroup)
	for _, entry := range entries {
		if entry.IP == "" {
			continue
		}
		group, ok := buckets[entry.IP]
		if !ok {
			group = &IPGroup{IP: entry.IP}
			buckets[entry.IP] = group
		}
		group.Orders = append(group.Orders, entry.Order)
		if entry.Suspicious {
			group.Suspicious = true
		}

		if created := entry.Order.CreatedAt(); !created.IsZero() {
			if group.FirstOrderAt.IsZero() || created.Before(group.FirstOrderAt) {
				group.FirstOrderAt = created
			}
			if created.After(group.LastOrderAt) {
				group.LastOrderAt = created
			}
		}
	}

	groups := make([]IPGroup, 0, len(buckets))
	for _, group := range buckets {
		if len(group.Orders) < minOrders {
			continue
		}
		group.OrderCount = len(group.Orders)
		group.UniqueCustomers = countCustomers(group.Orders)
		groups = append(groups, *group)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].OrderCount != groups[j].OrderCount {
			return groups[i].OrderCount > groups[j].OrderCount
		}
		return groups[i].IP < groups[j].IP
	})
	return groups
}

// countCustomers counts distinct customers by email, falling back to
// normalized phone, then order id so an anonymous order still counts once.
func countCustomers(records []orders.Record) int {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		key := r.Email()
		if key == "" {
			key = NormalizePhone(r.Phone())
		}
		if key == "" {
			key = "order:" + r.ID()
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}
