package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderscope/internal/detect"
	"orderscope/internal/geo"
	"orderscope/internal/orders"
)

func shippedOrder(id, country, province string) orders.Record {
	return orders.Record{
		"id":         id,
		"created_at": "2026-08-10T20:30:00Z",
		"customer":   map[string]any{"email": id + "@example.com"},
		"shipping_address": map[string]any{
			"country_code":  country,
			"province_code": province,
		},
	}
}

// =============================================================================
// Geolocation Strategy
// =============================================================================

func TestGeolocation(t *testing.T) {
	ctx := context.Background()
	g := &Geolocation{}

	t.Run("mapped region yields fixed confidence", func(t *testing.T) {
		out := g.Analyze(ctx, shippedOrder("1001", "US", "CA"), Context{})
		require.NotEmpty(t, out.IP)
		assert.Equal(t, 0.7, out.Confidence)
		assert.Equal(t, detect.MethodGeolocation, out.Method)
	})

	t.Run("same order always derives the same IP", func(t *testing.T) {
		a := g.Analyze(ctx, shippedOrder("1001", "US", "CA"), Context{})
		b := g.Analyze(ctx, shippedOrder("1001", "US", "CA"), Context{})
		assert.Equal(t, a.IP, b.IP)
	})

	t.Run("unmapped address degrades to zero", func(t *testing.T) {
		out := g.Analyze(ctx, shippedOrder("1001", "ZZ", ""), Context{})
		assert.Empty(t, out.IP)
		assert.Zero(t, out.Confidence)
	})
}

// =============================================================================
// Behavioral Strategy
// =============================================================================

func behavioralOrder(id, created, price, category, ua string) orders.Record {
	return orders.Record{
		"id":          id,
		"created_at":  created,
		"total_price": price,
		"customer":    map[string]any{"email": "same@example.com"},
		"line_items": []any{
			map[string]any{"sku": "SKU-1", "title": "Widget", "product_type": category},
		},
		"client_details": map[string]any{"user_agent": ua},
	}
}

func TestBehavioral(t *testing.T) {
	ctx := context.Background()
	b := &Behavioral{}
	const chromeDesktop = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

	t.Run("requires similar orders", func(t *testing.T) {
		out := b.Analyze(ctx, behavioralOrder("1", "2026-08-10T20:00:00Z", "50.00", "Apparel", ""), Context{})
		assert.Empty(t, out.IP)
		assert.Zero(t, out.Confidence)
	})

	t.Run("requires a known IP among similar orders", func(t *testing.T) {
		similar := behavioralOrder("2", "2026-08-09T20:30:00Z", "52.00", "Apparel", "")
		out := b.Analyze(ctx, behavioralOrder("1", "2026-08-10T20:00:00Z", "50.00", "Apparel", ""), Context{
			Similar: []orders.Record{similar},
		})
		assert.Empty(t, out.IP)
	})

	t.Run("matched hour and category correlate to mode IP", func(t *testing.T) {
		order := behavioralOrder("1", "2026-08-10T20:00:00Z", "200.00", "Apparel", "")
		similar := behavioralOrder("2", "2026-08-09T21:30:00Z", "40.00", "Apparel", "")
		out := b.Analyze(ctx, order, Context{
			Similar:  []orders.Record{similar},
			KnownIPs: map[string]string{"2": "98.176.44.12"},
		})
		require.Equal(t, "98.176.44.12", out.IP)
		assert.Equal(t, detect.MethodAlternative, out.Method)
		// mean of hour (0.70) and category (0.75)
		assert.InDelta(t, 0.725, out.Confidence, 0.0001)
		assert.ElementsMatch(t, []string{"purchase_hour", "product_category"}, out.Details)
	})

	t.Run("confidence capped at ceiling", func(t *testing.T) {
		order := behavioralOrder("1", "2026-08-10T20:00:00Z", "50.00", "Apparel", chromeDesktop)
		similar := behavioralOrder("2", "2026-08-09T20:30:00Z", "52.00", "Apparel", chromeDesktop)
		out := b.Analyze(ctx, order, Context{
			Similar:  []orders.Record{similar},
			KnownIPs: map[string]string{"2": "98.176.44.12"},
		})
		assert.LessOrEqual(t, out.Confidence, 0.8)
		assert.Len(t, out.Details, 4)
	})

	t.Run("mode picks most frequent IP deterministically", func(t *testing.T) {
		sim1 := behavioralOrder("2", "2026-08-09T20:30:00Z", "50.00", "Apparel", "")
		sim2 := behavioralOrder("3", "2026-08-08T20:10:00Z", "51.00", "Apparel", "")
		sim3 := behavioralOrder("4", "2026-08-07T19:50:00Z", "49.00", "Apparel", "")
		out := b.Analyze(ctx, behavioralOrder("1", "2026-08-10T20:00:00Z", "50.00", "Apparel", ""), Context{
			Similar: []orders.Record{sim1, sim2, sim3},
			KnownIPs: map[string]string{
				"2": "98.176.44.12",
				"3": "67.162.8.8",
				"4": "98.176.44.12",
			},
		})
		assert.Equal(t, "98.176.44.12", out.IP)
	})

	t.Run("hour wraps around midnight", func(t *testing.T) {
		assert.True(t, hourMatches(
			orders.Record{"created_at": "2026-08-10T23:30:00Z"},
			orders.Record{"created_at": "2026-08-09T01:00:00Z"},
		))
	})
}

// =============================================================================
// Temporal Strategy
// =============================================================================

func TestTemporal(t *testing.T) {
	ctx := context.Background()
	tr := &Temporal{}

	t.Run("agreement derives the geolocation IP with bonus", func(t *testing.T) {
		// 10:30 UTC is 20:30 in AU (+10): plausible and inside the
		// evening peak.
		order := shippedOrder("1001", "AU", "")
		order["created_at"] = "2026-08-10T10:30:00Z"

		out := tr.Analyze(ctx, order, Context{})
		require.NotEmpty(t, out.IP)
		assert.Equal(t, 0.7, out.Confidence)
		assert.Equal(t, detect.MethodAlternative, out.Method)

		g := (&Geolocation{}).Analyze(ctx, order, Context{})
		assert.Equal(t, g.IP, out.IP)
	})

	t.Run("off-peak agreement gets base confidence", func(t *testing.T) {
		// 00:30 UTC is 10:30 in AU: plausible, not peak.
		order := shippedOrder("1001", "AU", "")
		order["created_at"] = "2026-08-10T00:30:00Z"

		out := tr.Analyze(ctx, order, Context{})
		assert.Equal(t, 0.6, out.Confidence)
	})

	t.Run("contradiction degrades to zero", func(t *testing.T) {
		// 18:00 UTC is 04:00 in AU: nobody shops then.
		order := shippedOrder("1001", "AU", "")
		order["created_at"] = "2026-08-10T18:00:00Z"

		out := tr.Analyze(ctx, order, Context{})
		assert.Empty(t, out.IP)
		assert.Zero(t, out.Confidence)
	})

	t.Run("missing timestamp degrades to zero", func(t *testing.T) {
		order := shippedOrder("1001", "AU", "")
		delete(order, "created_at")
		out := tr.Analyze(ctx, order, Context{})
		assert.Zero(t, out.Confidence)
	})
}

// =============================================================================
// Intelligent Fallback
// =============================================================================

func TestFallback(t *testing.T) {
	ctx := context.Background()
	f := &Fallback{}

	t.Run("country representative first", func(t *testing.T) {
		out := f.Analyze(ctx, shippedOrder("1001", "GB", ""), Context{})
		require.NotEmpty(t, out.IP)
		assert.Equal(t, 0.30, out.Confidence)
		assert.Equal(t, detect.MethodFallback, out.Method)
	})

	t.Run("currency representative second", func(t *testing.T) {
		order := orders.Record{"id": "1001", "currency": "JPY"}
		out := f.Analyze(ctx, order, Context{})
		require.NotEmpty(t, out.IP)
		assert.Equal(t, 0.25, out.Confidence)
	})

	t.Run("generic default is the terminal value", func(t *testing.T) {
		out := f.Analyze(ctx, orders.Record{"id": "1001"}, Context{})
		assert.Equal(t, geo.GenericDefaultIP, out.IP)
		assert.Equal(t, 0.10, out.Confidence)
	})

	t.Run("never empty", func(t *testing.T) {
		out := f.Analyze(ctx, orders.Record{}, Context{})
		assert.NotEmpty(t, out.IP)
	})
}

// =============================================================================
// Panic Isolation
// =============================================================================

type panicStrategy struct{}

func (p *panicStrategy) Name() string { return "panics" }
func (p *panicStrategy) Analyze(context.Context, orders.Record, Context) Outcome {
	panic("boom")
}

func TestRunConvertsPanics(t *testing.T) {
	out := Run(context.Background(), &panicStrategy{}, orders.Record{}, Context{})
	assert.Empty(t, out.IP)
	assert.Zero(t, out.Confidence)
	assert.Equal(t, []string{"internal error"}, out.Details)
}
