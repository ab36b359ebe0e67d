// Package dedup groups orders by inferred identity and correlates likely
// duplicate orders: same customer phone, overlapping products, placed within
// a bounded window of each other.
package dedup

import (
	"time"

	"orderscope/internal/orders"
)

// MatchCriterion names the product attribute two orders matched on.
type MatchCriterion string

const (
	MatchSKU         MatchCriterion = "sku"
	MatchProductName MatchCriterion = "product_name"
)

// DuplicateWindowDays bounds how far apart a duplicate pair may be placed.
// The boundary is inclusive: exactly 30 days apart still correlates.
const DuplicateWindowDays = 30

// IPGroup is one inferred-IP bucket of orders. Built fresh per query, never
// persisted.
type IPGroup struct {
	IP              string          `json:"ip"`
	Orders          []orders.Record `json:"orders"`
	OrderCount      int             `json:"order_count"`
	UniqueCustomers int             `json:"unique_customers"`
	Suspicious      bool            `json:"is_suspicious"`
	FirstOrderAt    time.Time       `json:"first_order_at"`
	LastOrderAt     time.Time       `json:"last_order_at"`
}

// DuplicateCandidate is one resolved (original, duplicate) pair.
//
// Invariants: DaysBetween <= DuplicateWindowDays, the original was created
// no later than the duplicate, and CommonProducts is non-empty.
type DuplicateCandidate struct {
	CustomerPhone  string           `json:"customer_phone"`
	OriginalOrder  orders.Record    `json:"original_order"`
	DuplicateOrder orders.Record    `json:"duplicate_order"`
	CommonProducts []string         `json:"common_products"`
	MatchCriteria  []MatchCriterion `json:"match_criteria"`
	DaysBetween    int              `json:"days_between"`
}

// Report is the outcome of one duplicate-correlation run.
type Report struct {
	Candidates     []DuplicateCandidate `json:"candidates"`
	OrdersScanned  int                  `json:"orders_scanned"`
	PhoneGroups    int                  `json:"phone_groups"`
	GroupsResolved int                  `json:"groups_resolved"`
}
