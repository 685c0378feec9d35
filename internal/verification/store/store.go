// Package store persists verification records keyed by normalized carrier
// identifier. Implementations keep logically-expired records around for a
// retention window instead of deleting them at expiry: the verification
// service treats expiry as a miss on read, but falls back to the stale record
// when the registry is down.
package store

import (
	"context"
	"time"

	"loadvoice/internal/carrier"
)

// StaleRetention is how long a record remains physically retrievable past its
// logical expiry for stale-cache fallback. After this window the record is
// gone for good.
const StaleRetention = 7 * 24 * time.Hour

// Store is the verification cache port. Only the verification service reads
// or writes through it; nothing else mutates cache entries.
type Store interface {
	// Find returns the record for key, including one whose TTL has elapsed.
	// Returns sentinel.ErrNotFound (possibly wrapped) if no record exists.
	Find(ctx context.Context, key string) (*carrier.VerificationRecord, error)

	// Save unconditionally overwrites any prior record for key.
	Save(ctx context.Context, key string, record carrier.VerificationRecord) error

	// Invalidate removes the record for key. Removing an absent key is not
	// an error.
	Invalidate(ctx context.Context, key string) error
}
