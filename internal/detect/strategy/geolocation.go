package strategy

import (
	"context"
	"fmt"

	"orderscope/internal/detect"
	"orderscope/internal/geo"
	"orderscope/internal/orders"
)

// geolocationConfidence is fixed: an address-derived IP is a strong regional
// signal but says nothing about the individual host.
const geolocationConfidence = 0.7

// Geolocation derives a representative IP from the order's shipping or
// billing region. Derivation is seeded by (order ID, customer email) so the
// same order always yields the same inferred IP.
type Geolocation struct{}

func (g *Geolocation) Name() string { return "geolocation_by_address" }

func (g *Geolocation) Analyze(_ context.Context, order orders.Record, _ Context) Outcome {
	region, ok := geo.RegionFor(order.CountryCode(), order.ProvinceCode())
	if !ok {
		return Outcome{Details: []string{"no mapped range for address"}}
	}

	ip := geo.DeriveIP(region.CIDR, geo.Seed(order.ID(), order.Email()))
	if ip == "" {
		return Outcome{Details: []string{"range not derivable"}}
	}

	return Outcome{
		IP:         ip,
		Confidence: geolocationConfidence,
		Method:     detect.MethodGeolocation,
		Details:    []string{fmt.Sprintf("derived from %s", region.CIDR)},
	}
}
