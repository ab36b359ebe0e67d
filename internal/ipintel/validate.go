// Package ipintel extracts and classifies customer IP addresses from order
// records. Extraction walks a fixed trust hierarchy of fields; classification
// is a heuristic filter for infrastructure addresses, not ground truth.
package ipintel

import (
	"net"
	"net/netip"
	"strings"
)

// Normalize cleans up the formats IP fields show up in across upstream
// payloads: surrounding whitespace, quotes, a port suffix, IPv6 brackets.
// Returns the canonical string form, or "" when the value is not an IP.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	s = trimMatchedChar(s, '"')
	s = trimMatchedChar(s, '\'')
	if s == "" {
		return ""
	}

	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = trimMatchedPair(s, '[', ']')

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	if addr.Is4In6() {
		addr = addr.Unmap()
	}
	return addr.String()
}

// Valid reports whether s parses as an IPv4 or IPv6 address after
// normalization.
func Valid(s string) bool {
	return Normalize(s) != ""
}

// trimMatchedPair removes one leading and trailing delimiter when both match.
func trimMatchedPair(s string, start, end byte) string {
	if len(s) < 2 {
		return s
	}
	if s[0] != start || s[len(s)-1] != end {
		return s
	}
	return s[1 : len(s)-1]
}

// trimMatchedChar removes one matching leading and trailing character.
func trimMatchedChar(s string, ch byte) string {
	return trimMatchedPair(s, ch, ch)
}
