package carrier

import "time"

// OperatingStatus is the registry's authority status. Anything other than
// Authorized is treated as inactive authority by the risk scorer.
type OperatingStatus string

const (
	StatusAuthorized OperatingStatus = "AUTHORIZED"
	StatusUnknown    OperatingStatus = "UNKNOWN"
)

// SafetyRating is the registry's most recent compliance-review rating.
type SafetyRating string

const (
	RatingSatisfactory   SafetyRating = "SATISFACTORY"
	RatingConditional    SafetyRating = "CONDITIONAL"
	RatingUnsatisfactory SafetyRating = "UNSATISFACTORY"
	RatingNotRated       SafetyRating = "NOT_RATED"
)

// Insurance is a coverage line as reported by the registry. Nil means the
// registry reported nothing for that figure, which is distinct from a
// reported zero.
type Insurance struct {
	RequiredUSD *float64 `json:"required_usd"`
	OnFileUSD   *float64 `json:"on_file_usd"`
}

// CrashHistory holds 24-month crash counts. Nil counts mean the registry had
// no crash data, not a clean record.
type CrashHistory struct {
	Fatal  *int `json:"fatal"`
	Injury *int `json:"injury"`
	Tow    *int `json:"tow"`
	Total  *int `json:"total"`
}

// RegistrySnapshot is the canonical form of one registry lookup. All optional
// numeric facts are pointers: absent upstream data stays absent here, so the
// scorer can tell "no evidence" from "zero risk". Immutable once fetched.
type RegistrySnapshot struct {
	LegalName string `json:"legal_name"`
	DBAName   string `json:"dba_name,omitempty"`

	OperatingStatus OperatingStatus `json:"operating_status"`
	SafetyRating    SafetyRating    `json:"safety_rating"`

	AuthorityGrantedAt *time.Time `json:"authority_granted_at,omitempty"`
	AuthorityAgeDays   *int       `json:"authority_age_days,omitempty"`

	Liability Insurance `json:"liability"`
	Cargo     Insurance `json:"cargo"`

	// Out-of-service rates are percentages (0-100) alongside the national
	// averages the registry publishes for comparison.
	VehicleOOSRate        *float64 `json:"vehicle_oos_rate,omitempty"`
	DriverOOSRate         *float64 `json:"driver_oos_rate,omitempty"`
	NationalAvgVehicleOOS *float64 `json:"national_avg_vehicle_oos,omitempty"`
	NationalAvgDriverOOS  *float64 `json:"national_avg_driver_oos,omitempty"`

	Crashes CrashHistory `json:"crashes"`

	PowerUnits *int `json:"power_units,omitempty"`
	Drivers    *int `json:"drivers,omitempty"`

	FetchedAt time.Time `json:"fetched_at"`
}
