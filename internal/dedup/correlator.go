package dedup

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"orderscope/internal/notify"
	"orderscope/internal/orders"
)

// Correlator resolves duplicate orders inside one fetched window.
type Correlator struct {
	logger    *slog.Logger
	publisher notify.Publisher
}

// Option configures a Correlator.
type Option func(*Correlator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Correlator) {
		c.logger = logger
	}
}

// WithPublisher sets the destination for duplicate-found events.
func WithPublisher(publisher notify.Publisher) Option {
	return func(c *Correlator) {
		c.publisher = publisher
	}
}

// NewCorrelator constructs a Correlator. Without a publisher, events go
// nowhere.
func NewCorrelator(opts ...Option) *Correlator {
	c := &Correlator{
		logger:    slog.Default(),
		publisher: notify.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindDuplicates walks every phone-identity group in records and resolves
// (original, duplicate) pairs. Cancelled orders and orders without a phone
// never participate. Each resolved pair is also published as a fire-and-forget
// event.
func (c *Correlator) FindDuplicates(ctx context.Context, storeRef string, records []orders.Record) Report {
	report := Report{OrdersScanned: len(records)}

	buckets := make(map[string][]orders.Record)
	for _, r := range records {
		if r.Cancelled() {
			continue
		}
		phone := NormalizePhone(r.Phone())
		if phone == "" {
			continue
		}
		buckets[phone] = append(buckets[phone], r)
	}

	phones := make([]string, 0, len(buckets))
	for phone, group := range buckets {
		if len(group) >= 2 {
			phones = append(phones, phone)
		}
	}
	sort.Strings(phones)
	report.PhoneGroups = len(phones)

	for _, phone := range phones {
		group := buckets[phone]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreatedAt().Before(group[j].CreatedAt())
		})

		candidates := c.resolveGroup(phone, group)
		if len(candidates) == 0 {
			continue
		}
		report.GroupsResolved++
		report.Candidates = append(report.Candidates, candidates...)

		for _, cand := range candidates {
			c.publish(ctx, storeRef, cand)
		}
	}

	return report
}

const processedTag = "processed"

// resolveGroup applies the original-selection policy to one phone group,
// sorted oldest first.
//
// The two branches deliberately pick from opposite ends: with a processed
// order present, the newest processed one is the original and later orders
// duplicate it; with none, the oldest product-matching order is the original.
// Unifying them would change which order survives a cancellation.
func (c *Correlator) resolveGroup(phone string, group []orders.Record) []DuplicateCandidate {
	var processed []orders.Record
	for _, r := range group {
		if r.HasTag(processedTag) {
			processed = append(processed, r)
		}
	}

	if len(processed) > 0 {
		original := processed[len(processed)-1]
		return c.pairAgainst(phone, original, group)
	}

	// No processed order: the oldest order sharing a product with a later
	// one anchors the group. Requiring a partner keeps a lone order from
	// being flagged against itself.
	for i, candidate := range group {
		for _, later := range group[i+1:] {
			if products, _ := sharedProducts(candidate, later); len(products) > 0 {
				return c.pairAgainst(phone, candidate, group)
			}
		}
	}
	return nil
}

// pairAgainst resolves every order placed at or after the original that
// shares a product with it inside the duplicate window.
func (c *Correlator) pairAgainst(phone string, original orders.Record, group []orders.Record) []DuplicateCandidate {
	var out []DuplicateCandidate
	for _, r := range group {
		if r.ID() == original.ID() || r.HasTag(processedTag) {
			continue
		}
		if r.CreatedAt().Before(original.CreatedAt()) {
			continue
		}

		products, criteria := sharedProducts(original, r)
		if len(products) == 0 {
			continue
		}
		days := daysBetween(original.CreatedAt(), r.CreatedAt())
		if days > DuplicateWindowDays {
			continue
		}

		out = append(out, DuplicateCandidate{
			CustomerPhone:  phone,
			OriginalOrder:  original,
			DuplicateOrder: r,
			CommonProducts: products,
			MatchCriteria:  criteria,
			DaysBetween:    days,
		})
	}
	return out
}

// sharedProducts intersects two orders' line items by SKU and by normalized
// title, reporting which criteria matched.
func sharedProducts(a, b orders.Record) ([]string, []MatchCriterion) {
	aSKUs := make(map[string]struct{})
	aNames := make(map[string]struct{})
	for _, item := range a.LineItems() {
		if item.SKU != "" {
			aSKUs[item.SKU] = struct{}{}
		}
		if name := NormalizeTitle(item.Title); name != "" {
			aNames[name] = struct{}{}
		}
	}

	shared := make(map[string]struct{})
	var skuMatch, nameMatch bool
	for _, item := range b.LineItems() {
		if item.SKU != "" {
			if _, ok := aSKUs[item.SKU]; ok {
				shared[item.SKU] = struct{}{}
				skuMatch = true
			}
		}
		if name := NormalizeTitle(item.Title); name != "" {
			if _, ok := aNames[name]; ok {
				shared[name] = struct{}{}
				nameMatch = true
			}
		}
	}

	if len(shared) == 0 {
		return nil, nil
	}
	products := make([]string, 0, len(shared))
	for p := range shared {
		products = append(products, p)
	}
	sort.Strings(products)

	var criteria []MatchCriterion
	if skuMatch {
		criteria = append(criteria, MatchSKU)
	}
	if nameMatch {
		criteria = append(criteria, MatchProductName)
	}
	return products, criteria
}

// daysBetween counts whole days from a to b.
func daysBetween(a, b time.Time) int {
	if b.Before(a) {
		a, b = b, a
	}
	return int(b.Sub(a).Hours() / 24)
}

func (c *Correlator) publish(ctx context.Context, storeRef string, cand DuplicateCandidate) {
	criteria := make([]string, len(cand.MatchCriteria))
	for i, m := range cand.MatchCriteria {
		criteria[i] = string(m)
	}
	c.publisher.DuplicateFound(ctx, notify.DuplicateEvent{
		StoreRef:         storeRef,
		CustomerPhone:    cand.CustomerPhone,
		OriginalOrderID:  cand.OriginalOrder.ID(),
		DuplicateOrderID: cand.DuplicateOrder.ID(),
		CommonProducts:   cand.CommonProducts,
		MatchCriteria:    criteria,
		DaysBetween:      cand.DaysBetween,
		DetectedAt:       time.Now().UTC(),
	})
	c.logger.Debug("duplicate pair resolved",
		"phone", cand.CustomerPhone,
		"original_order_id", cand.OriginalOrder.ID(),
		"duplicate_order_id", cand.DuplicateOrder.ID(),
		"days_between", cand.DaysBetween,
	)
}
