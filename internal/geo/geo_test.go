package geo

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionFor(t *testing.T) {
	t.Run("province match wins over country", func(t *testing.T) {
		r, ok := RegionFor("US", "CA")
		require.True(t, ok)
		assert.Equal(t, "98.176.0.0/13", r.CIDR)
		assert.Equal(t, -8, r.UTCOffsetHours)
	})

	t.Run("unmapped province falls back to country", func(t *testing.T) {
		r, ok := RegionFor("us", "wy")
		require.True(t, ok)
		assert.Equal(t, countryRanges["US"].CIDR, r.CIDR)
	})

	t.Run("unmapped country misses", func(t *testing.T) {
		_, ok := RegionFor("ZZ", "")
		assert.False(t, ok)
	})

	t.Run("empty country misses", func(t *testing.T) {
		_, ok := RegionFor("", "CA")
		assert.False(t, ok)
	})
}

func TestCountryForCurrency(t *testing.T) {
	c, ok := CountryForCurrency("usd")
	require.True(t, ok)
	assert.Equal(t, "US", c)

	_, ok = CountryForCurrency("XXX")
	assert.False(t, ok)
}

func TestDeriveIP(t *testing.T) {
	t.Run("deterministic for same seed", func(t *testing.T) {
		a := DeriveIP("98.176.0.0/13", Seed("1001", "jo@example.com"))
		b := DeriveIP("98.176.0.0/13", Seed("1001", "jo@example.com"))
		require.NotEmpty(t, a)
		assert.Equal(t, a, b)
	})

	t.Run("different seeds diverge", func(t *testing.T) {
		a := DeriveIP("98.176.0.0/13", Seed("1001", "jo@example.com"))
		b := DeriveIP("98.176.0.0/13", Seed("1002", "jo@example.com"))
		assert.NotEqual(t, a, b)
	})

	t.Run("stays inside the prefix", func(t *testing.T) {
		prefix := netip.MustParsePrefix("86.128.0.0/10")
		for _, seed := range []string{"a", "b", "c", "order|mail"} {
			ip := DeriveIP(prefix.String(), seed)
			require.NotEmpty(t, ip)
			addr := netip.MustParseAddr(ip)
			assert.True(t, prefix.Contains(addr), "derived %s outside %s", ip, prefix)
		}
	})

	t.Run("avoids infrastructure-looking octets", func(t *testing.T) {
		for _, seed := range []string{"x", "y", "z", "w", "v"} {
			ip := DeriveIP("70.112.0.0/12", seed)
			require.NotEmpty(t, ip)
			assert.False(t, strings.HasSuffix(ip, ".1"), "derived %s ends like a gateway", ip)
			assert.False(t, strings.HasSuffix(ip, ".254"), "derived %s ends like a gateway", ip)
			assert.NotContains(t, ip, ".0.")
			assert.NotContains(t, ip, ".255.")
		}
	})

	t.Run("rejects narrow or malformed prefixes", func(t *testing.T) {
		assert.Empty(t, DeriveIP("10.0.0.0/24", "seed"))
		assert.Empty(t, DeriveIP("not-a-cidr", "seed"))
		assert.Empty(t, DeriveIP("2001:db8::/32", "seed"))
	})
}

func TestTableRangesAreDerivable(t *testing.T) {
	for key, r := range regionRanges {
		assert.NotEmpty(t, DeriveIP(r.CIDR, "probe"), "region %s has underivable range", key)
	}
	for key, r := range countryRanges {
		assert.NotEmpty(t, DeriveIP(r.CIDR, "probe"), "country %s has underivable range", key)
	}
}
