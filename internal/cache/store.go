// Package cache provides the analytics cache layer: deterministic key
// derivation over request parameters, a TTL envelope around stored payloads,
// and interchangeable memory/redis backing stores.
//
// The cache is a performance layer, never a source of truth. Every failure
// path degrades to a miss so callers fall through to the order source.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Store is the backing key-value store behind the Layer. Implementations
// return sentinel.ErrNotFound for missing keys and sentinel.ErrExpired for
// keys whose TTL elapsed; anything else is a backend fault the Layer treats
// as a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePattern removes every key matching the glob pattern and reports
	// how many were removed.
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

const keyNamespace = "osc"

// Key derives a deterministic cache key from an operation prefix and its
// request parameters. The store reference is lifted out of the digest into
// its own key segment so a whole store's entries can be invalidated with a
// single glob, without knowing which parameter combinations were cached.
func Key(prefix string, params map[string]string) string {
	store := params["store"]
	if store == "" {
		store = "-"
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(prefix)
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}

	digest := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s:%s:%s:%s", keyNamespace, prefix, store, hex.EncodeToString(digest[:16]))
}

// StorePattern is the glob matching every cached entry for one store
// reference, across all operation prefixes.
func StorePattern(storeRef string) string {
	return fmt.Sprintf("%s:*:%s:*", keyNamespace, storeRef)
}
