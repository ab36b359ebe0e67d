package ipintel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderscope/internal/orders"
)

func TestExtractHierarchy(t *testing.T) {
	t.Run("default address wins over every other tier", func(t *testing.T) {
		order := orders.Record{
			"client_ip": "198.51.100.99",
			"customer": map[string]any{
				"last_order_ip": "198.51.100.50",
				"default_address": map[string]any{
					"client_ip": "203.0.113.45",
				},
			},
			"shipping_address": map[string]any{"ip_address": "198.51.100.60"},
		}

		ip, source := Extract(order)
		assert.Equal(t, "203.0.113.45", ip)
		assert.Equal(t, "customer.default_address.client_ip", source)
	})

	t.Run("shipping beats billing", func(t *testing.T) {
		order := orders.Record{
			"shipping_address": map[string]any{"customer_ip": "198.51.100.60"},
			"billing_address":  map[string]any{"customer_ip": "198.51.100.70"},
		}

		ip, source := Extract(order)
		assert.Equal(t, "198.51.100.60", ip)
		assert.Equal(t, "shipping_address.customer_ip", source)
	})

	t.Run("invalid value in a higher tier is skipped", func(t *testing.T) {
		order := orders.Record{
			"customer": map[string]any{
				"default_address": map[string]any{"client_ip": "not-an-ip"},
			},
			"billing_address": map[string]any{"ip": "198.51.100.70"},
		}

		ip, source := Extract(order)
		assert.Equal(t, "198.51.100.70", ip)
		assert.Equal(t, "billing_address.ip", source)
	})

	t.Run("top-level fields are the last hierarchy tier", func(t *testing.T) {
		order := orders.Record{"ip_address": "198.51.100.80"}

		ip, source := Extract(order)
		assert.Equal(t, "198.51.100.80", ip)
		assert.Equal(t, "ip_address", source)
	})

	t.Run("browser_ip fallback is tagged distinctly", func(t *testing.T) {
		order := orders.Record{
			"client_details": map[string]any{"browser_ip": "198.51.100.90:443"},
		}

		ip, source := Extract(order)
		assert.Equal(t, "198.51.100.90", ip)
		assert.Equal(t, BrowserIPFallbackSource, source)
	})

	t.Run("nothing found", func(t *testing.T) {
		ip, source := Extract(orders.Record{"customer": map[string]any{"email": "a@b.c"}})
		assert.Empty(t, ip)
		assert.Empty(t, source)
	})

	t.Run("mistyped fields never panic", func(t *testing.T) {
		order := orders.Record{
			"customer":         []any{"wat"},
			"shipping_address": map[string]any{"client_ip": 42},
			"client_details":   "nope",
		}
		ip, source := Extract(order)
		assert.Empty(t, ip)
		assert.Empty(t, source)
	})
}

// Every IP accepted by any extraction path must validate.
func TestExtractedIPsValidate(t *testing.T) {
	records := []orders.Record{
		{"customer": map[string]any{"default_address": map[string]any{"browser_ip": " 203.0.113.5 "}}},
		{"shipping_address": map[string]any{"ip": "[2001:db8::44]:8080"}},
		{"client_details": map[string]any{"browser_ip": `"198.51.100.3"`}},
	}
	for _, r := range records {
		ip, _ := Extract(r)
		require.NotEmpty(t, ip)
		assert.True(t, Valid(ip))
	}
}
