package ipintel

import (
	"strings"

	"orderscope/internal/orders"
)

// ipFieldNames are the field names a directly-asserted customer IP hides
// behind, in trust order within a tier.
var ipFieldNames = []string{"client_ip", "customer_ip", "ip_address", "ip", "browser_ip"}

// tier is one level of the extraction hierarchy: an object path plus the
// candidate field names inside it.
type tier struct {
	path   []string
	fields []string
}

// hierarchy encodes the trust ranking of IP-bearing locations on an order.
// The order is load-bearing: earlier tiers are written by systems closer to
// the customer, so the walk stops at the first syntactically valid hit.
var hierarchy = []tier{
	{path: []string{"customer", "default_address"}, fields: ipFieldNames},
	{path: []string{"shipping_address"}, fields: ipFieldNames},
	{path: []string{"billing_address"}, fields: ipFieldNames},
	{path: []string{"customer"}, fields: []string{"last_order_ip", "registration_ip", "client_ip", "customer_ip", "ip_address", "ip"}},
	{path: []string{"client_details"}, fields: []string{"client_ip", "customer_ip", "ip_address", "ip"}},
	{path: nil, fields: []string{"client_ip", "customer_ip", "ip_address", "ip", "browser_ip"}},
}

// BrowserIPFallbackSource tags the last-resort browser_ip signal, which sits
// outside the primary hierarchy because checkout middleware often records a
// proxy there.
const BrowserIPFallbackSource = "browser_ip_fallback"

// Extract walks the field hierarchy and returns the first syntactically valid
// IP together with its dotted source path. When the whole hierarchy misses,
// client_details.browser_ip is consulted as a distinct last resort. Missing
// and mistyped fields are skipped silently; Extract never fails.
func Extract(order orders.Record) (ip, source string) {
	for _, t := range hierarchy {
		obj := map[string]any(order)
		if len(t.path) > 0 {
			obj = order.Map(t.path...)
			if obj == nil {
				continue
			}
		}
		for _, field := range t.fields {
			raw, ok := obj[field].(string)
			if !ok {
				continue
			}
			if norm := Normalize(raw); norm != "" {
				return norm, sourcePath(t.path, field)
			}
		}
	}

	if raw := order.StringAt("client_details", "browser_ip"); raw != "" {
		if norm := Normalize(raw); norm != "" {
			return norm, BrowserIPFallbackSource
		}
	}

	return "", ""
}

func sourcePath(path []string, field string) string {
	if len(path) == 0 {
		return field
	}
	return strings.Join(path, ".") + "." + field
}
