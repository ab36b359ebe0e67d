package strategy

import (
	"context"
	"sort"
	"strings"

	"github.com/mssola/useragent"

	"orderscope/internal/detect"
	"orderscope/internal/orders"
)

// Pattern confidences. The mean of the matched subset, capped at the
// behavioral ceiling, becomes the outcome confidence.
const (
	behavioralCeiling   = 0.8
	hourPatternConf     = 0.70
	valuePatternConf    = 0.60
	categoryPatternConf = 0.75
	devicePatternConf   = 0.60

	hourTolerance  = 2    // hours, with midnight wraparound
	valueTolerance = 0.30 // relative difference
)

// Behavioral correlates the order against similar orders from the same
// customer: purchase hour, order value, product-category overlap, and
// checkout device class. When at least one pattern matches, the most frequent
// known IP among the similar orders is taken as the inferred IP.
type Behavioral struct{}

func (b *Behavioral) Name() string { return "behavioral_pattern" }

func (b *Behavioral) Analyze(_ context.Context, order orders.Record, sc Context) Outcome {
	if len(sc.Similar) == 0 {
		return Outcome{Details: []string{"no similar orders"}}
	}

	ip := modeKnownIP(sc)
	if ip == "" {
		return Outcome{Details: []string{"no known IP among similar orders"}}
	}

	var matched []string
	var total float64

	if anySimilar(sc.Similar, func(s orders.Record) bool { return hourMatches(order, s) }) {
		matched = append(matched, "purchase_hour")
		total += hourPatternConf
	}
	if anySimilar(sc.Similar, func(s orders.Record) bool { return valueMatches(order, s) }) {
		matched = append(matched, "order_value")
		total += valuePatternConf
	}
	if anySimilar(sc.Similar, func(s orders.Record) bool { return categoriesOverlap(order, s) }) {
		matched = append(matched, "product_category")
		total += categoryPatternConf
	}
	if anySimilar(sc.Similar, func(s orders.Record) bool { return deviceMatches(order, s) }) {
		matched = append(matched, "device_class")
		total += devicePatternConf
	}

	if len(matched) == 0 {
		return Outcome{Details: []string{"no behavioral pattern matched"}}
	}

	confidence := total / float64(len(matched))
	if confidence > behavioralCeiling {
		confidence = behavioralCeiling
	}

	return Outcome{
		IP:         ip,
		Confidence: confidence,
		Method:     detect.MethodAlternative,
		Details:    matched,
	}
}

func anySimilar(similar []orders.Record, match func(orders.Record) bool) bool {
	for _, s := range similar {
		if match(s) {
			return true
		}
	}
	return false
}

// modeKnownIP returns the most frequent known IP among the similar orders.
// Ties break lexicographically so repeated runs stay deterministic.
func modeKnownIP(sc Context) string {
	counts := make(map[string]int)
	for _, s := range sc.Similar {
		if ip := sc.KnownIPs[s.ID()]; ip != "" {
			counts[ip]++
		}
	}
	if len(counts) == 0 {
		return ""
	}

	ips := make([]string, 0, len(counts))
	for ip := range counts {
		ips = append(ips, ip)
	}
	sort.Slice(ips, func(i, j int) bool {
		if counts[ips[i]] != counts[ips[j]] {
			return counts[ips[i]] > counts[ips[j]]
		}
		return ips[i] < ips[j]
	})
	return ips[0]
}

func hourMatches(a, b orders.Record) bool {
	at, bt := a.CreatedAt(), b.CreatedAt()
	if at.IsZero() || bt.IsZero() {
		return false
	}
	diff := at.UTC().Hour() - bt.UTC().Hour()
	if diff < 0 {
		diff = -diff
	}
	if diff > 12 {
		diff = 24 - diff
	}
	return diff <= hourTolerance
}

func valueMatches(a, b orders.Record) bool {
	av, bv := a.TotalPrice(), b.TotalPrice()
	if av <= 0 || bv <= 0 {
		return false
	}
	diff := av - bv
	if diff < 0 {
		diff = -diff
	}
	max := av
	if bv > max {
		max = bv
	}
	return diff/max <= valueTolerance
}

func categoriesOverlap(a, b orders.Record) bool {
	seen := make(map[string]bool)
	for _, item := range a.LineItems() {
		if c := strings.ToLower(strings.TrimSpace(item.ProductType)); c != "" {
			seen[c] = true
		}
	}
	if len(seen) == 0 {
		return false
	}
	for _, item := range b.LineItems() {
		if seen[strings.ToLower(strings.TrimSpace(item.ProductType))] {
			return true
		}
	}
	return false
}

// deviceMatches compares checkout device classes: same browser family and
// same mobile/desktop split counts as agreement.
func deviceMatches(a, b orders.Record) bool {
	ua, ub := a.UserAgent(), b.UserAgent()
	if ua == "" || ub == "" {
		return false
	}
	pa, pb := useragent.New(ua), useragent.New(ub)
	na, _ := pa.Browser()
	nb, _ := pb.Browser()
	if na == "" || nb == "" {
		return false
	}
	return na == nb && pa.Mobile() == pb.Mobile()
}
