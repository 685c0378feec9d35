// Package carrier holds the domain types for motor-carrier verification:
// identifiers, registry snapshots, risk assessments, and the verification
// record that callers receive.
package carrier

import (
	"fmt"
	"strings"

	dErrors "loadvoice/pkg/domain-errors"
)

// Identifier is the caller-supplied handle for a carrier. At least one field
// must be present. MC and DOT numbers are normalized to bare digit strings;
// CarrierID is the CRM's internal id for carriers already on file.
type Identifier struct {
	MCNumber  string `json:"mc_number,omitempty"`
	DOTNumber string `json:"dot_number,omitempty"`
	CarrierID string `json:"carrier_id,omitempty"`
}

// maxNumberDigits bounds MC/DOT numbers; the registry issues at most 8-digit
// numbers today, 10 leaves headroom.
const maxNumberDigits = 10

// NormalizeNumber reduces an MC/DOT number to its digits. Known prefixes
// ("MC-", "DOT-", any case, with or without the dash) and all other non-digit
// characters are stripped, so "MC-123", "mc123", and " 123 " all normalize to
// "123". Idempotent: normalizing an already-normalized value is a no-op.
func NormalizeNumber(raw string) string {
	s := strings.TrimSpace(raw)
	upper := strings.ToUpper(s)
	for _, prefix := range []string{"MC-", "MC", "DOT-", "DOT", "USDOT"} {
		if strings.HasPrefix(upper, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize returns a copy with every field in canonical form. It must be
// applied before any cache lookup or registry call so that equivalent
// spellings share one cache entry.
func (id Identifier) Normalize() Identifier {
	return Identifier{
		MCNumber:  NormalizeNumber(id.MCNumber),
		DOTNumber: NormalizeNumber(id.DOTNumber),
		CarrierID: strings.ToLower(strings.TrimSpace(id.CarrierID)),
	}
}

// Validate checks a normalized identifier. It rejects identifiers with no
// fields at all and MC/DOT numbers that did not survive normalization as a
// digit string of plausible length.
func (id Identifier) Validate() error {
	if id.MCNumber == "" && id.DOTNumber == "" && id.CarrierID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "no carrier identifier provided")
	}
	for name, num := range map[string]string{"mc_number": id.MCNumber, "dot_number": id.DOTNumber} {
		if num == "" {
			continue
		}
		if len(num) > maxNumberDigits {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("%s is not a plausible carrier number", name))
		}
	}
	return nil
}

// Key returns the cache key for a normalized identifier. MC number wins over
// DOT number wins over internal id, so the same carrier looked up two ways
// can at worst occupy two entries, never a malformed one.
func (id Identifier) Key() string {
	switch {
	case id.MCNumber != "":
		return "mc:" + id.MCNumber
	case id.DOTNumber != "":
		return "dot:" + id.DOTNumber
	default:
		return "carrier:" + id.CarrierID
	}
}

// HasRegistryNumber reports whether the identifier carries a number the
// external registry can be queried with.
func (id Identifier) HasRegistryNumber() bool {
	return id.MCNumber != "" || id.DOTNumber != ""
}
