// Package orders models the order platform's records and the port through
// which the engine reads them. Records are immutable snapshots; every accessor
// is defensive because upstream payloads routinely omit fields or change the
// type of a field between API versions.
package orders

import (
	"strconv"
	"strings"
	"time"

	pstrings "orderscope/pkg/platform/strings"
)

// Record is an opaque order snapshot as returned by the order source.
// The engine never mutates a Record.
type Record map[string]any

// LineItem is the subset of a line item the engine cares about.
type LineItem struct {
	SKU         string
	Title       string
	ProductType string
	Quantity    int
}

// Map returns the nested object at the given path, or nil when any hop is
// missing or not an object.
func (r Record) Map(path ...string) map[string]any {
	cur := map[string]any(r)
	for _, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// StringAt returns the string value at the given path, or "" when the path is
// absent or the value is not a string.
func (r Record) StringAt(path ...string) string {
	if len(path) == 0 {
		return ""
	}
	parent := map[string]any(r)
	if len(path) > 1 {
		parent = r.Map(path[:len(path)-1]...)
		if parent == nil {
			return ""
		}
	}
	s, _ := parent[path[len(path)-1]].(string)
	return s
}

// ID returns the order's identifier. JSON decoding can deliver it as a
// string or a number depending on the upstream serializer.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// Email returns the customer email from the customer object or the
// order-level contact fields.
func (r Record) Email() string {
	if e := r.StringAt("customer", "email"); e != "" {
		return e
	}
	if e := r.StringAt("email"); e != "" {
		return e
	}
	return r.StringAt("contact_email")
}

// Phone returns the first phone number asserted anywhere on the order.
func (r Record) Phone() string {
	for _, path := range [][]string{
		{"customer", "phone"},
		{"shipping_address", "phone"},
		{"billing_address", "phone"},
		{"phone"},
	} {
		if p := r.StringAt(path...); p != "" {
			return p
		}
	}
	return ""
}

// CreatedAt parses the order's creation timestamp. Returns the zero time when
// the field is absent or unparseable.
func (r Record) CreatedAt() time.Time {
	s := r.StringAt("created_at")
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Tags returns the order tags. Upstream sends either a comma-separated
// string or a list, sometimes with repeats.
func (r Record) Tags() []string {
	switch v := r["tags"].(type) {
	case string:
		if v == "" {
			return nil
		}
		return pstrings.DedupeAndTrim(strings.Split(v, ","))
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				tags = append(tags, s)
			}
		}
		return pstrings.DedupeAndTrim(tags)
	}
	return nil
}

// HasTag reports whether the order carries the tag, case-insensitively.
func (r Record) HasTag(tag string) bool {
	for _, t := range r.Tags() {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Cancelled reports whether the order was cancelled upstream.
func (r Record) Cancelled() bool {
	if s, ok := r["cancelled_at"].(string); ok && s != "" {
		return true
	}
	return r.StringAt("financial_status") == "voided"
}

// FinancialStatus returns the order's financial status, or "".
func (r Record) FinancialStatus() string {
	return r.StringAt("financial_status")
}

// TotalPrice returns the order total. Upstream sends it as a decimal string;
// some variants send a number.
func (r Record) TotalPrice() float64 {
	switch v := r["total_price"].(type) {
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	case float64:
		return v
	}
	return 0
}

// Currency returns the ISO currency code, or "".
func (r Record) Currency() string {
	return strings.ToUpper(r.StringAt("currency"))
}

// CountryCode returns the shipping country, falling back to billing.
func (r Record) CountryCode() string {
	if c := r.StringAt("shipping_address", "country_code"); c != "" {
		return strings.ToUpper(c)
	}
	return strings.ToUpper(r.StringAt("billing_address", "country_code"))
}

// ProvinceCode returns the shipping state/province, falling back to billing.
func (r Record) ProvinceCode() string {
	if p := r.StringAt("shipping_address", "province_code"); p != "" {
		return strings.ToUpper(p)
	}
	return strings.ToUpper(r.StringAt("billing_address", "province_code"))
}

// UserAgent returns the browser user agent captured at checkout, or "".
func (r Record) UserAgent() string {
	return r.StringAt("client_details", "user_agent")
}

// LineItems returns the order's line items with defensive field handling.
func (r Record) LineItems() []LineItem {
	raw, ok := r["line_items"].([]any)
	if !ok {
		return nil
	}
	items := make([]LineItem, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		item := LineItem{Quantity: 1}
		if s, ok := m["sku"].(string); ok {
			item.SKU = s
		}
		if s, ok := m["title"].(string); ok {
			item.Title = s
		}
		if s, ok := m["product_type"].(string); ok {
			item.ProductType = s
		}
		switch q := m["quantity"].(type) {
		case float64:
			item.Quantity = int(q)
		case int:
			item.Quantity = q
		}
		items = append(items, item)
	}
	return items
}
