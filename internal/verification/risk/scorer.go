// Package risk turns a registry snapshot into a composite risk assessment.
// This is pure domain logic: no I/O, no clocks, no side effects. The same
// snapshot always yields the same assessment, which is what lets tests pin
// exact scores and lets two runs detect upstream data drift.
package risk

import "loadvoice/internal/carrier"

// Additive-penalty model: start from a perfect score and subtract per
// finding. Weights and thresholds are a starting calibration against the
// registry's published benchmarks; tune against real registry data before
// treating them as fixed.
const (
	perfectScore = 100

	penaltyInactiveAuthority = 40

	penaltyLiabilityNone    = 35
	penaltyLiabilityPartial = 20
	penaltyCargoNone        = 18
	penaltyCargoPartial     = 10

	penaltyOOSCritical = 15
	penaltyOOSAboveAvg = 8

	penaltyNewAuthority = 10

	penaltyRatingUnsatisfactory = 25
	penaltyRatingConditional    = 10

	penaltyPerFatalCrash  = 3
	fatalCrashPenaltyCap  = 15
	penaltyPerInjuryCrash = 1
	injuryCrashPenaltyCap = 10

	vehicleOOSCriticalPct = 30.0
	driverOOSCriticalPct  = 10.0
	newAuthorityDays      = 90

	lowRiskFloor    = 80
	mediumRiskFloor = 50
)

// Score evaluates the snapshot against every rule and returns the clamped
// score, its level, and the warning list ordered CRITICAL, WARNING, INFO
// (stable within a tier in rule-evaluation order).
func Score(snap carrier.RegistrySnapshot) carrier.RiskAssessment {
	e := &evaluation{score: perfectScore}

	e.checkOperatingStatus(snap)
	e.checkInsurance(snap.Liability, "liability", penaltyLiabilityNone, penaltyLiabilityPartial)
	e.checkInsurance(snap.Cargo, "cargo", penaltyCargoNone, penaltyCargoPartial)
	e.checkOOSRate("vehicle", snap.VehicleOOSRate, snap.NationalAvgVehicleOOS, vehicleOOSCriticalPct)
	e.checkOOSRate("driver", snap.DriverOOSRate, snap.NationalAvgDriverOOS, driverOOSCriticalPct)
	e.checkAuthorityAge(snap)
	e.checkSafetyRating(snap)
	e.checkCrashHistory(snap)

	score := clamp(e.score)
	return carrier.RiskAssessment{
		Score:    score,
		Level:    levelFor(score),
		Warnings: e.ordered(),
	}
}

type evaluation struct {
	score    int
	critical []carrier.Warning
	warning  []carrier.Warning
	info     []carrier.Warning
}

func (e *evaluation) penalize(points int, severity carrier.Severity, message string) {
	e.score -= points
	e.emit(severity, message)
}

func (e *evaluation) emit(severity carrier.Severity, message string) {
	w := carrier.Warning{Severity: severity, Message: message}
	switch severity {
	case carrier.SeverityCritical:
		e.critical = append(e.critical, w)
	case carrier.SeverityWarning:
		e.warning = append(e.warning, w)
	default:
		e.info = append(e.info, w)
	}
}

// ordered flattens warnings by tier; appending per tier during evaluation
// keeps ordering stable without a sort.
func (e *evaluation) ordered() []carrier.Warning {
	out := make([]carrier.Warning, 0, len(e.critical)+len(e.warning)+len(e.info))
	out = append(out, e.critical...)
	out = append(out, e.warning...)
	out = append(out, e.info...)
	return out
}

func (e *evaluation) checkOperatingStatus(snap carrier.RegistrySnapshot) {
	if snap.OperatingStatus != carrier.StatusAuthorized {
		e.penalize(penaltyInactiveAuthority, carrier.SeverityCritical, "Operating authority is not active.")
	}
}

func (e *evaluation) checkInsurance(ins carrier.Insurance, line string, nonePenalty, partialPenalty int) {
	if ins.RequiredUSD == nil || *ins.RequiredUSD <= 0 {
		// No requirement on file means nothing to measure coverage against.
		return
	}
	switch {
	case ins.OnFileUSD == nil || *ins.OnFileUSD <= 0:
		e.penalize(nonePenalty, carrier.SeverityCritical, "No "+line+" insurance on file.")
	case *ins.OnFileUSD < *ins.RequiredUSD:
		e.penalize(partialPenalty, carrier.SeverityWarning, "On-file "+line+" insurance is below the required amount.")
	}
}

func (e *evaluation) checkOOSRate(kind string, rate, nationalAvg *float64, criticalPct float64) {
	if rate == nil {
		// Zero evidence, not zero risk: no penalty, but surface the gap.
		e.emit(carrier.SeverityInfo, "No "+kind+" out-of-service inspection data available.")
		return
	}
	switch {
	case *rate > criticalPct:
		e.penalize(penaltyOOSCritical, carrier.SeverityCritical, "Severely elevated "+kind+" out-of-service rate.")
	case nationalAvg != nil && *rate > *nationalAvg:
		e.penalize(penaltyOOSAboveAvg, carrier.SeverityWarning, capitalize(kind)+" out-of-service rate is above the national average.")
	}
}

func (e *evaluation) checkAuthorityAge(snap carrier.RegistrySnapshot) {
	if snap.AuthorityAgeDays != nil && *snap.AuthorityAgeDays < newAuthorityDays {
		// Very new authority correlates with reincarnated-carrier fraud.
		e.penalize(penaltyNewAuthority, carrier.SeverityWarning, "New operating authority with limited operating history.")
	}
}

func (e *evaluation) checkSafetyRating(snap carrier.RegistrySnapshot) {
	switch snap.SafetyRating {
	case carrier.RatingUnsatisfactory:
		e.penalize(penaltyRatingUnsatisfactory, carrier.SeverityCritical, "Safety rating is unsatisfactory.")
	case carrier.RatingConditional:
		e.penalize(penaltyRatingConditional, carrier.SeverityWarning, "Safety rating is conditional.")
	case carrier.RatingNotRated:
		e.emit(carrier.SeverityInfo, "Carrier has not received a safety rating.")
	}
}

func (e *evaluation) checkCrashHistory(snap carrier.RegistrySnapshot) {
	fatal := 0
	if snap.Crashes.Fatal != nil {
		fatal = *snap.Crashes.Fatal
	}
	injury := 0
	if snap.Crashes.Injury != nil {
		injury = *snap.Crashes.Injury
	}

	crashSeverity := carrier.SeverityInfo
	if fatal > 0 {
		crashSeverity = carrier.SeverityWarning
	}

	if fatal > 0 {
		e.penalize(capPenalty(fatal*penaltyPerFatalCrash, fatalCrashPenaltyCap), crashSeverity,
			"Fatal crashes reported in the last 24 months.")
	}
	if injury > 0 {
		e.penalize(capPenalty(injury*penaltyPerInjuryCrash, injuryCrashPenaltyCap), crashSeverity,
			"Injury crashes reported in the last 24 months.")
	}
}

func capPenalty(points, limit int) int {
	if points > limit {
		return limit
	}
	return points
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > perfectScore {
		return perfectScore
	}
	return score
}

func levelFor(score int) carrier.RiskLevel {
	switch {
	case score >= lowRiskFloor:
		return carrier.RiskLow
	case score >= mediumRiskFloor:
		return carrier.RiskMedium
	default:
		return carrier.RiskHigh
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
