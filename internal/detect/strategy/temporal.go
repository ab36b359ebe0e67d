package strategy

import (
	"context"
	"fmt"

	"orderscope/internal/detect"
	"orderscope/internal/geo"
	"orderscope/internal/orders"
)

const (
	temporalBaseConfidence = 0.6
	temporalPeakBonus      = 0.1
	temporalCeiling        = 0.7

	// Shopping overwhelmingly happens between these local hours; outside
	// the band the timezone implied by the address is contradicted.
	plausibleLocalStart = 8
	plausibleLocalEnd   = 23
	peakLocalStart      = 18
	peakLocalEnd        = 22
)

// Temporal cross-checks the order's purchase hour against the timezone of the
// region implied by its address. On agreement it derives an IP through the
// same mechanism as the geolocation strategy, with a small evening-peak bonus.
type Temporal struct{}

func (t *Temporal) Name() string { return "temporal_timezone" }

func (t *Temporal) Analyze(_ context.Context, order orders.Record, _ Context) Outcome {
	region, ok := geo.RegionFor(order.CountryCode(), order.ProvinceCode())
	if !ok {
		return Outcome{Details: []string{"no mapped range for address"}}
	}

	created := order.CreatedAt()
	if created.IsZero() {
		return Outcome{Details: []string{"no creation timestamp"}}
	}

	localHour := ((created.UTC().Hour()+region.UTCOffsetHours)%24 + 24) % 24
	if localHour < plausibleLocalStart || localHour > plausibleLocalEnd {
		return Outcome{Details: []string{
			fmt.Sprintf("purchase at local hour %d contradicts region timezone", localHour),
		}}
	}

	ip := geo.DeriveIP(region.CIDR, geo.Seed(order.ID(), order.Email()))
	if ip == "" {
		return Outcome{Details: []string{"range not derivable"}}
	}

	confidence := temporalBaseConfidence
	if localHour >= peakLocalStart && localHour <= peakLocalEnd {
		confidence += temporalPeakBonus
	}
	if confidence > temporalCeiling {
		confidence = temporalCeiling
	}

	return Outcome{
		IP:         ip,
		Confidence: confidence,
		Method:     detect.MethodAlternative,
		Details:    []string{fmt.Sprintf("local hour %d agrees with region timezone", localHour)},
	}
}
