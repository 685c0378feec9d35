package handler

import (
	"strings"

	"loadvoice/internal/carrier"
	"loadvoice/internal/verification"
	dErrors "loadvoice/pkg/domain-errors"
)

// VerifyRequest is the HTTP request body for POST /verify.
type VerifyRequest struct {
	MCNumber     string `json:"mc_number"`
	DOTNumber    string `json:"dot_number"`
	CarrierID    string `json:"carrier_id"`
	ForceRefresh bool   `json:"force_refresh"`
}

// maxCarrierIDLen bounds the opaque CRM id before it hits the resolver.
const maxCarrierIDLen = 64

// Validate checks the request shape. Number normalization happens in the
// service; the handler only rejects bodies that cannot possibly verify.
func (r *VerifyRequest) Validate() error {
	r.MCNumber = strings.TrimSpace(r.MCNumber)
	r.DOTNumber = strings.TrimSpace(r.DOTNumber)
	r.CarrierID = strings.TrimSpace(r.CarrierID)

	if r.MCNumber == "" && r.DOTNumber == "" && r.CarrierID == "" {
		return dErrors.New(dErrors.CodeBadRequest,
			"at least one of mc_number, dot_number, or carrier_id is required")
	}
	if len(r.CarrierID) > maxCarrierIDLen {
		return dErrors.New(dErrors.CodeBadRequest, "carrier_id is too long")
	}
	return nil
}

// ToDomain converts the HTTP body into the service request.
func (r *VerifyRequest) ToDomain() verification.VerifyRequest {
	return verification.VerifyRequest{
		Identifier: carrier.Identifier{
			MCNumber:  r.MCNumber,
			DOTNumber: r.DOTNumber,
			CarrierID: r.CarrierID,
		},
		ForceRefresh: r.ForceRefresh,
	}
}
