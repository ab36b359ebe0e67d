package geo

import (
	"hash/fnv"
	"net/netip"
)

// DeriveIP deterministically picks one host address inside cidr from a seed.
// The same seed always yields the same address, which keeps detection
// idempotent across runs. The chosen host avoids octet values that the
// suspicious-IP classifier treats as infrastructure (.0, .1, .254, .255).
//
// Returns "" when cidr is not an IPv4 prefix with at least 16 host bits.
func DeriveIP(cidr, seed string) string {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil || !prefix.Addr().Is4() || prefix.Bits() > 16 {
		return ""
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	sum := h.Sum64()

	b := prefix.Addr().As4()
	// Third octet in [2, 253], fourth in [2, 253]: inside any >=16-host-bit
	// range and clear of gateway/broadcast-looking values.
	b[2] = byte(2 + sum%252)
	b[3] = byte(2 + (sum>>8)%252)

	return netip.AddrFrom4(b).String()
}

// Seed builds the deterministic derivation seed for an order.
func Seed(orderID, customerEmail string) string {
	return orderID + "|" + customerEmail
}
