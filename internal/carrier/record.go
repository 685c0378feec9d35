package carrier

import "time"

// Severity tiers a warning by how strongly it should influence a broker's
// decision to book the carrier.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// Warning is one finding from the risk scorer.
type Warning struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// RiskLevel buckets a numeric score for display and routing rules.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskAssessment is derived from a RegistrySnapshot and never persisted
// without one. Warnings are ordered CRITICAL, WARNING, INFO; stable within a
// tier in rule-evaluation order.
type RiskAssessment struct {
	Score    int       `json:"score"`
	Level    RiskLevel `json:"level"`
	Warnings []Warning `json:"warnings"`
}

// VerificationRecord is the unit returned to callers and stored in the cache.
//
// Verified=true always carries both Snapshot and Assessment. Verified=false
// means the registry had no such carrier; the record then carries only
// Guidance. FromCache and Stale describe a specific read, not the stored
// record: the service recomputes them on every lookup and values deserialized
// from a store are discarded.
type VerificationRecord struct {
	Identifier Identifier        `json:"identifier"`
	Verified   bool              `json:"verified"`
	Snapshot   *RegistrySnapshot `json:"snapshot,omitempty"`
	Assessment *RiskAssessment   `json:"assessment,omitempty"`
	Guidance   []string          `json:"guidance,omitempty"`

	VerifiedAt     time.Time `json:"verified_at"`
	CacheExpiresAt time.Time `json:"cache_expires_at"`

	FromCache bool `json:"from_cache"`
	Stale     bool `json:"stale,omitempty"`
}

// ExpiredAt reports whether the record's TTL has elapsed at the given time.
// Expiry is inclusive: a read at exactly CacheExpiresAt is a miss.
func (r VerificationRecord) ExpiredAt(now time.Time) bool {
	return !now.Before(r.CacheExpiresAt)
}
