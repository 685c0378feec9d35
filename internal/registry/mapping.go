package registry

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"loadvoice/internal/carrier"
)

// The registry payload is loosely typed: numeric fields arrive as numbers,
// quoted numbers, or not at all. flexFloat and flexInt absorb that here so
// the mapping to a RegistrySnapshot stays total and the scorer never sees a
// defaulted zero where the registry reported nothing.

type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || string(data) == `""` {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		// Unparseable is treated as absent rather than failing the whole
		// lookup; a single junk field should not lose the snapshot.
		return nil
	}
	f.Value = v
	f.Set = true
	return nil
}

func (f flexFloat) ptr() *float64 {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

type flexInt struct {
	Value int
	Set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var ff flexFloat
	if err := ff.UnmarshalJSON(data); err != nil {
		return err
	}
	if ff.Set {
		f.Value = int(ff.Value)
		f.Set = true
	}
	return nil
}

func (f flexInt) ptr() *int {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

// rawCarrier mirrors the registry's carrier document shape.
type rawCarrier struct {
	LegalName       string `json:"legal_name"`
	DBAName         string `json:"dba_name"`
	OperatingStatus string `json:"operating_status"`
	SafetyRating    string `json:"safety_rating"`

	AuthorityGrantDate string `json:"authority_grant_date"`

	Insurance struct {
		Liability struct {
			Required flexFloat `json:"required"`
			OnFile   flexFloat `json:"on_file"`
		} `json:"liability"`
		Cargo struct {
			Required flexFloat `json:"required"`
			OnFile   flexFloat `json:"on_file"`
		} `json:"cargo"`
	} `json:"insurance"`

	OutOfService struct {
		VehicleRate        flexFloat `json:"vehicle_rate"`
		DriverRate         flexFloat `json:"driver_rate"`
		NationalAvgVehicle flexFloat `json:"national_avg_vehicle"`
		NationalAvgDriver  flexFloat `json:"national_avg_driver"`
	} `json:"out_of_service"`

	Crashes struct {
		Fatal  flexInt `json:"fatal"`
		Injury flexInt `json:"injury"`
		Tow    flexInt `json:"tow"`
		Total  flexInt `json:"total"`
	} `json:"crashes_24m"`

	Fleet struct {
		PowerUnits flexInt `json:"power_units"`
		Drivers    flexInt `json:"drivers"`
	} `json:"fleet"`
}

// mapSnapshot converts a raw registry document into the canonical snapshot.
// It is total: every input maps to a snapshot, with absent facts preserved as
// absent. Defaulting rules live here and nowhere else.
func mapSnapshot(raw rawCarrier, now time.Time) *carrier.RegistrySnapshot {
	snap := &carrier.RegistrySnapshot{
		LegalName:       strings.TrimSpace(raw.LegalName),
		DBAName:         strings.TrimSpace(raw.DBAName),
		OperatingStatus: mapOperatingStatus(raw.OperatingStatus),
		SafetyRating:    mapSafetyRating(raw.SafetyRating),

		Liability: carrier.Insurance{
			RequiredUSD: raw.Insurance.Liability.Required.ptr(),
			OnFileUSD:   raw.Insurance.Liability.OnFile.ptr(),
		},
		Cargo: carrier.Insurance{
			RequiredUSD: raw.Insurance.Cargo.Required.ptr(),
			OnFileUSD:   raw.Insurance.Cargo.OnFile.ptr(),
		},

		VehicleOOSRate:        raw.OutOfService.VehicleRate.ptr(),
		DriverOOSRate:         raw.OutOfService.DriverRate.ptr(),
		NationalAvgVehicleOOS: raw.OutOfService.NationalAvgVehicle.ptr(),
		NationalAvgDriverOOS:  raw.OutOfService.NationalAvgDriver.ptr(),

		Crashes: carrier.CrashHistory{
			Fatal:  raw.Crashes.Fatal.ptr(),
			Injury: raw.Crashes.Injury.ptr(),
			Tow:    raw.Crashes.Tow.ptr(),
			Total:  raw.Crashes.Total.ptr(),
		},

		PowerUnits: raw.Fleet.PowerUnits.ptr(),
		Drivers:    raw.Fleet.Drivers.ptr(),

		FetchedAt: now,
	}

	if granted, ok := parseGrantDate(raw.AuthorityGrantDate); ok {
		snap.AuthorityGrantedAt = &granted
		age := int(now.Sub(granted).Hours() / 24)
		if age < 0 {
			age = 0
		}
		snap.AuthorityAgeDays = &age
	}

	return snap
}

func mapOperatingStatus(s string) carrier.OperatingStatus {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return carrier.StatusUnknown
	}
	// The registry spells active authority a few ways across record vintages.
	switch s {
	case "AUTHORIZED", "AUTHORIZED FOR PROPERTY", "ACTIVE":
		return carrier.StatusAuthorized
	}
	return carrier.OperatingStatus(s)
}

func mapSafetyRating(s string) carrier.SafetyRating {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SATISFACTORY", "S":
		return carrier.RatingSatisfactory
	case "CONDITIONAL", "C":
		return carrier.RatingConditional
	case "UNSATISFACTORY", "U":
		return carrier.RatingUnsatisfactory
	default:
		// No rating on file and unrecognized codes both mean the registry
		// has not rated the carrier.
		return carrier.RatingNotRated
	}
}

func parseGrantDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "01/02/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// decodeCarrierDocument parses a registry response body. A present-but-null
// carrier field means the registry answered authoritatively that the carrier
// does not exist.
func decodeCarrierDocument(body []byte) (*rawCarrier, error) {
	var envelope struct {
		Carrier *rawCarrier `json:"carrier"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	return envelope.Carrier, nil
}
