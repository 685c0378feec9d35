// Package events publishes verification lifecycle events for downstream
// consumers (CRM timelines, compliance exports). Publishing is fire-and
// forget: a full buffer or a broker outage drops events and never delays or
// fails a verification.
package events

import (
	"time"

	"loadvoice/internal/carrier"
)

// Type identifies the event kind.
type Type string

const (
	TypeVerificationCompleted Type = "verification.completed"
	TypeVerificationNotFound  Type = "verification.not_found"
)

// Event is one verification outcome, flattened for downstream consumers.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	CarrierKey string    `json:"carrier_key"`
	Verified   bool      `json:"verified"`
	RiskScore  int       `json:"risk_score,omitempty"`
	RiskLevel  string    `json:"risk_level,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FromRecord builds the event for a freshly-verified record. Cache hits do
// not produce events; only new registry facts do.
func FromRecord(id string, record carrier.VerificationRecord) Event {
	e := Event{
		ID:         id,
		Type:       TypeVerificationNotFound,
		CarrierKey: record.Identifier.Key(),
		Verified:   record.Verified,
		OccurredAt: record.VerifiedAt,
	}
	if record.Verified && record.Assessment != nil {
		e.Type = TypeVerificationCompleted
		e.RiskScore = record.Assessment.Score
		e.RiskLevel = string(record.Assessment.Level)
	}
	return e
}
