// Package geo maps order addresses to representative network ranges and
// timezone buckets. The tables are heuristic: each range is a large
// residential-ISP block typical for the region, good enough to stand in for a
// customer IP when no direct signal exists, and explicitly labeled as inferred.
package geo

import "strings"

// Region is a representative network range plus the region's UTC offset.
type Region struct {
	// CIDR is a representative residential range for the region. All table
	// entries keep at least 16 host bits so DeriveIP has room to pick a
	// plausible host address.
	CIDR string
	// UTCOffsetHours is the region's standard UTC offset, used by the
	// temporal correlation strategy.
	UTCOffsetHours int
}

// regionRanges keys are "CC:PP" (country:province).
var regionRanges = map[string]Region{
	"US:CA": {CIDR: "98.176.0.0/13", UTCOffsetHours: -8},
	"US:WA": {CIDR: "67.160.0.0/13", UTCOffsetHours: -8},
	"US:TX": {CIDR: "70.112.0.0/12", UTCOffsetHours: -6},
	"US:IL": {CIDR: "73.36.0.0/14", UTCOffsetHours: -6},
	"US:NY": {CIDR: "68.160.0.0/12", UTCOffsetHours: -5},
	"US:FL": {CIDR: "97.100.0.0/14", UTCOffsetHours: -5},
	"CA:ON": {CIDR: "99.224.0.0/12", UTCOffsetHours: -5},
	"CA:QC": {CIDR: "70.80.0.0/13", UTCOffsetHours: -5},
	"CA:BC": {CIDR: "96.48.0.0/13", UTCOffsetHours: -8},
}

// countryRanges cover orders with a country but no mapped province.
var countryRanges = map[string]Region{
	"US": {CIDR: "98.176.0.0/13", UTCOffsetHours: -6},
	"CA": {CIDR: "99.224.0.0/12", UTCOffsetHours: -5},
	"GB": {CIDR: "86.128.0.0/10", UTCOffsetHours: 0},
	"IE": {CIDR: "86.40.0.0/13", UTCOffsetHours: 0},
	"DE": {CIDR: "91.32.0.0/11", UTCOffsetHours: 1},
	"FR": {CIDR: "90.16.0.0/12", UTCOffsetHours: 1},
	"NL": {CIDR: "84.80.0.0/12", UTCOffsetHours: 1},
	"ES": {CIDR: "88.8.0.0/13", UTCOffsetHours: 1},
	"IT": {CIDR: "79.16.0.0/12", UTCOffsetHours: 1},
	"IN": {CIDR: "106.192.0.0/10", UTCOffsetHours: 5},
	"JP": {CIDR: "126.16.0.0/12", UTCOffsetHours: 9},
	"AU": {CIDR: "110.140.0.0/14", UTCOffsetHours: 10},
	"NZ": {CIDR: "121.72.0.0/13", UTCOffsetHours: 12},
	"BR": {CIDR: "177.32.0.0/12", UTCOffsetHours: -3},
	"MX": {CIDR: "187.160.0.0/12", UTCOffsetHours: -6},
}

// currencyCountry picks a representative country when only the order currency
// is known. Last-resort signal for the intelligent fallback.
var currencyCountry = map[string]string{
	"USD": "US",
	"CAD": "CA",
	"GBP": "GB",
	"EUR": "DE",
	"AUD": "AU",
	"NZD": "NZ",
	"JPY": "JP",
	"INR": "IN",
	"BRL": "BR",
	"MXN": "MX",
}

// GenericDefaultIP is the terminal fallback when nothing about the order maps
// anywhere. A residential-looking address, trusted at the lowest tier only.
const GenericDefaultIP = "73.158.64.20"

// RegionFor resolves the most specific mapped region for a country and
// province, falling back from "CC:PP" to "CC".
func RegionFor(country, province string) (Region, bool) {
	country = strings.ToUpper(strings.TrimSpace(country))
	province = strings.ToUpper(strings.TrimSpace(province))
	if country == "" {
		return Region{}, false
	}
	if province != "" {
		if r, ok := regionRanges[country+":"+province]; ok {
			return r, true
		}
	}
	r, ok := countryRanges[country]
	return r, ok
}

// CountryForCurrency returns the representative country for a currency code.
func CountryForCurrency(currency string) (string, bool) {
	c, ok := currencyCountry[strings.ToUpper(strings.TrimSpace(currency))]
	return c, ok
}
