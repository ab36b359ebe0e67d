package strategy

import (
	"context"

	"orderscope/internal/detect"
	"orderscope/internal/geo"
	"orderscope/internal/orders"
)

const (
	fallbackCountryConf  = 0.30
	fallbackCurrencyConf = 0.25
	fallbackGenericConf  = 0.10
)

// Fallback is the terminal strategy: country-representative IP, then
// currency-representative, then a single generic default. It always produces
// a result so the pipeline has a terminal value, labeled low-trust.
type Fallback struct{}

func (f *Fallback) Name() string { return "intelligent_fallback" }

func (f *Fallback) Analyze(_ context.Context, order orders.Record, _ Context) Outcome {
	seed := geo.Seed(order.ID(), order.Email())

	if region, ok := geo.RegionFor(order.CountryCode(), ""); ok {
		if ip := geo.DeriveIP(region.CIDR, seed); ip != "" {
			return Outcome{
				IP:         ip,
				Confidence: fallbackCountryConf,
				Method:     detect.MethodFallback,
				Details:    []string{"country representative"},
			}
		}
	}

	if country, ok := geo.CountryForCurrency(order.Currency()); ok {
		if region, ok := geo.RegionFor(country, ""); ok {
			if ip := geo.DeriveIP(region.CIDR, seed); ip != "" {
				return Outcome{
					IP:         ip,
					Confidence: fallbackCurrencyConf,
					Method:     detect.MethodFallback,
					Details:    []string{"currency representative"},
				}
			}
		}
	}

	return Outcome{
		IP:         geo.GenericDefaultIP,
		Confidence: fallbackGenericConf,
		Method:     detect.MethodFallback,
		Details:    []string{"generic default"},
	}
}
