package ipintel

import (
	"net/netip"
	"strings"
)

// infraPrefix is one entry of the maintained infrastructure range table.
type infraPrefix struct {
	prefix netip.Prefix
	reason string
}

// infraPrefixes lists ranges that belong to infrastructure rather than end
// customers: private/localhost space plus known cloud, CDN, and crawler
// blocks that show up in order payloads when a proxy or app middlebox wrote
// its own address into a customer field.
var infraPrefixes = []infraPrefix{
	{mustParsePrefix("127.0.0.0/8"), "localhost"},
	{mustParsePrefix("10.0.0.0/8"), "private range"},
	{mustParsePrefix("172.16.0.0/12"), "private range"},
	{mustParsePrefix("192.168.0.0/16"), "private range"},
	{mustParsePrefix("169.254.0.0/16"), "link-local"},
	{mustParsePrefix("100.64.0.0/10"), "carrier-grade NAT"},
	{mustParsePrefix("0.0.0.0/8"), "unspecified range"},
	{mustParsePrefix("224.0.0.0/4"), "multicast"},
	{mustParsePrefix("240.0.0.0/4"), "reserved range"},
	{mustParsePrefix("104.16.0.0/13"), "cloudflare edge"},
	{mustParsePrefix("172.64.0.0/13"), "cloudflare edge"},
	{mustParsePrefix("23.192.0.0/11"), "akamai edge"},
	{mustParsePrefix("13.32.0.0/15"), "cloudfront edge"},
	{mustParsePrefix("3.0.0.0/9"), "aws cloud"},
	{mustParsePrefix("52.0.0.0/10"), "aws cloud"},
	{mustParsePrefix("34.64.0.0/10"), "google cloud"},
	{mustParsePrefix("35.192.0.0/12"), "google cloud"},
	{mustParsePrefix("66.249.64.0/19"), "google crawler"},
	{mustParsePrefix("20.192.0.0/10"), "azure cloud"},
	{mustParsePrefix("40.74.0.0/15"), "azure cloud"},
	{mustParsePrefix("157.240.0.0/16"), "meta infrastructure"},
	{mustParsePrefix("::1/128"), "localhost"},
	{mustParsePrefix("fc00::/7"), "private range"},
	{mustParsePrefix("fe80::/10"), "link-local"},
	{mustParsePrefix("2001:db8::/32"), "documentation range"},
}

// IsSuspicious reports whether the address looks like infrastructure rather
// than an end customer. Heuristic: false positives and negatives are
// expected, so callers flag suspicious results instead of dropping them.
func IsSuspicious(ip string) bool {
	return PatternReason(ip) != ""
}

// PatternReason returns the first matching classification rule, or "" when
// the address looks like a plausible customer. Rules are evaluated in order:
// syntax, range table, gateway-style suffix, infrastructure octets.
func PatternReason(ip string) string {
	norm := Normalize(ip)
	if norm == "" {
		return "invalid or empty address"
	}

	addr, err := netip.ParseAddr(norm)
	if err != nil {
		return "invalid or empty address"
	}

	for _, entry := range infraPrefixes {
		if entry.prefix.Contains(addr) {
			return entry.reason
		}
	}

	if addr.Is4() {
		if strings.HasSuffix(norm, ".1") || strings.HasSuffix(norm, ".254") {
			return "gateway-style suffix"
		}
		if strings.Contains(norm, ".0.") || strings.Contains(norm, ".255.") {
			return "infrastructure octet"
		}
	}

	return ""
}

func mustParsePrefix(s string) netip.Prefix {
	prefix, err := netip.ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return prefix
}
