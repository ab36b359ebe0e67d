package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborator clients
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the store or order source
// - ErrExpired: cache entry or window has expired
// - ErrUnavailable: backend temporarily unreachable (cache, redis, broker)
// - ErrTransient: upstream failure that is safe to retry with backoff
//
// For validation errors (bad window, bad IDs), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
	ErrTransient   = errors.New("transient upstream failure")
)
