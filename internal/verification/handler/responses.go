package handler

import (
	"time"

	"loadvoice/internal/carrier"
)

// VerifyResponse is the HTTP response for POST /verify.
type VerifyResponse struct {
	Carrier    CarrierRef          `json:"carrier"`
	Verified   bool                `json:"verified"`
	Snapshot   *SnapshotResponse   `json:"snapshot,omitempty"`
	Assessment *AssessmentResponse `json:"assessment,omitempty"`
	Guidance   []string            `json:"guidance,omitempty"`

	VerifiedAt     time.Time `json:"verified_at"`
	CacheExpiresAt time.Time `json:"cache_expires_at"`
	FromCache      bool      `json:"from_cache"`
	Stale          bool      `json:"stale,omitempty"`
}

// CarrierRef echoes the normalized identifier the lookup resolved to.
type CarrierRef struct {
	MCNumber  string `json:"mc_number,omitempty"`
	DOTNumber string `json:"dot_number,omitempty"`
	CarrierID string `json:"carrier_id,omitempty"`
}

// SnapshotResponse is the registry snapshot portion of the response.
type SnapshotResponse struct {
	LegalName       string `json:"legal_name"`
	DBAName         string `json:"dba_name,omitempty"`
	OperatingStatus string `json:"operating_status"`
	SafetyRating    string `json:"safety_rating"`

	AuthorityGrantedAt *time.Time `json:"authority_granted_at,omitempty"`
	AuthorityAgeDays   *int       `json:"authority_age_days,omitempty"`

	Liability InsuranceResponse `json:"liability"`
	Cargo     InsuranceResponse `json:"cargo"`

	VehicleOOSRate *float64 `json:"vehicle_oos_rate,omitempty"`
	DriverOOSRate  *float64 `json:"driver_oos_rate,omitempty"`

	Crashes CrashResponse `json:"crashes_24m"`

	PowerUnits *int `json:"power_units,omitempty"`
	Drivers    *int `json:"drivers,omitempty"`
}

type InsuranceResponse struct {
	RequiredUSD *float64 `json:"required_usd"`
	OnFileUSD   *float64 `json:"on_file_usd"`
}

type CrashResponse struct {
	Fatal  *int `json:"fatal"`
	Injury *int `json:"injury"`
	Tow    *int `json:"tow"`
	Total  *int `json:"total"`
}

// AssessmentResponse is the risk portion of the response.
type AssessmentResponse struct {
	Score    int               `json:"score"`
	Level    string            `json:"level"`
	Warnings []WarningResponse `json:"warnings"`
}

type WarningResponse struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// FromRecord converts a domain VerificationRecord to an HTTP response.
func FromRecord(record *carrier.VerificationRecord) *VerifyResponse {
	resp := &VerifyResponse{
		Carrier: CarrierRef{
			MCNumber:  record.Identifier.MCNumber,
			DOTNumber: record.Identifier.DOTNumber,
			CarrierID: record.Identifier.CarrierID,
		},
		Verified:       record.Verified,
		Guidance:       record.Guidance,
		VerifiedAt:     record.VerifiedAt,
		CacheExpiresAt: record.CacheExpiresAt,
		FromCache:      record.FromCache,
		Stale:          record.Stale,
	}

	if snap := record.Snapshot; snap != nil {
		resp.Snapshot = &SnapshotResponse{
			LegalName:          snap.LegalName,
			DBAName:            snap.DBAName,
			OperatingStatus:    string(snap.OperatingStatus),
			SafetyRating:       string(snap.SafetyRating),
			AuthorityGrantedAt: snap.AuthorityGrantedAt,
			AuthorityAgeDays:   snap.AuthorityAgeDays,
			Liability:          InsuranceResponse{RequiredUSD: snap.Liability.RequiredUSD, OnFileUSD: snap.Liability.OnFileUSD},
			Cargo:              InsuranceResponse{RequiredUSD: snap.Cargo.RequiredUSD, OnFileUSD: snap.Cargo.OnFileUSD},
			VehicleOOSRate:     snap.VehicleOOSRate,
			DriverOOSRate:      snap.DriverOOSRate,
			Crashes: CrashResponse{
				Fatal:  snap.Crashes.Fatal,
				Injury: snap.Crashes.Injury,
				Tow:    snap.Crashes.Tow,
				Total:  snap.Crashes.Total,
			},
			PowerUnits: snap.PowerUnits,
			Drivers:    snap.Drivers,
		}
	}

	if a := record.Assessment; a != nil {
		warnings := make([]WarningResponse, 0, len(a.Warnings))
		for _, w := range a.Warnings {
			warnings = append(warnings, WarningResponse{
				Severity: string(w.Severity),
				Message:  w.Message,
			})
		}
		resp.Assessment = &AssessmentResponse{
			Score:    a.Score,
			Level:    string(a.Level),
			Warnings: warnings,
		}
	}

	return resp
}
