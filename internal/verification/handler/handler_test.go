package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadvoice/internal/carrier"
	"loadvoice/internal/verification"
	dErrors "loadvoice/pkg/domain-errors"
)

type fakeService struct {
	lastReq verification.VerifyRequest
	record  *carrier.VerificationRecord
	err     error
}

func (f *fakeService) Verify(_ context.Context, req verification.VerifyRequest) (*carrier.VerificationRecord, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func newRouter(svc Service) *chi.Mux {
	r := chi.NewRouter()
	New(svc, slog.Default()).Register(r)
	return r
}

func postVerify(t *testing.T, router http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func verifiedRecord() *carrier.VerificationRecord {
	required := 1000000.0
	onFile := 750000.0
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &carrier.VerificationRecord{
		Identifier: carrier.Identifier{MCNumber: "123456"},
		Verified:   true,
		Snapshot: &carrier.RegistrySnapshot{
			LegalName:       "Acme Freight LLC",
			OperatingStatus: carrier.StatusAuthorized,
			SafetyRating:    carrier.RatingSatisfactory,
			Liability:       carrier.Insurance{RequiredUSD: &required, OnFileUSD: &onFile},
			FetchedAt:       now,
		},
		Assessment: &carrier.RiskAssessment{
			Score: 80,
			Level: carrier.RiskLow,
			Warnings: []carrier.Warning{
				{Severity: carrier.SeverityCritical, Message: "liability insurance on file is below the required minimum"},
			},
		},
		VerifiedAt:     now,
		CacheExpiresAt: now.Add(24 * time.Hour),
	}
}

func TestHandleVerify(t *testing.T) {
	svc := &fakeService{record: verifiedRecord()}
	router := newRouter(svc)

	rec := postVerify(t, router, map[string]any{
		"mc_number":     "MC-123456",
		"force_refresh": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "MC-123456", svc.lastReq.Identifier.MCNumber)
	assert.True(t, svc.lastReq.ForceRefresh)

	var resp VerifyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Verified)
	assert.Equal(t, "123456", resp.Carrier.MCNumber)
	require.NotNil(t, resp.Snapshot)
	assert.Equal(t, "Acme Freight LLC", resp.Snapshot.LegalName)
	require.NotNil(t, resp.Assessment)
	assert.Equal(t, 80, resp.Assessment.Score)
	assert.Equal(t, "LOW", resp.Assessment.Level)
	require.Len(t, resp.Assessment.Warnings, 1)
	assert.Equal(t, "CRITICAL", resp.Assessment.Warnings[0].Severity)
}

func TestHandleVerifyNotFoundRecord(t *testing.T) {
	svc := &fakeService{record: &carrier.VerificationRecord{
		Identifier: carrier.Identifier{MCNumber: "999999"},
		Verified:   false,
		Guidance:   []string{"The MC or DOT number may be invalid or mistyped."},
		VerifiedAt: time.Now(),
	}}
	rec := postVerify(t, newRouter(svc), map[string]string{"mc_number": "999999"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Verified)
	assert.Nil(t, resp.Snapshot)
	assert.Nil(t, resp.Assessment)
	assert.NotEmpty(t, resp.Guidance)
}

func TestHandleVerifyRejectsEmptyBody(t *testing.T) {
	svc := &fakeService{}
	rec := postVerify(t, newRouter(svc), map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "bad_request", envelope["error"])
}

func TestHandleVerifyMalformedJSON(t *testing.T) {
	router := newRouter(&fakeService{})
	req := httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVerifyServiceErrors(t *testing.T) {
	t.Run("registry unavailable", func(t *testing.T) {
		svc := &fakeService{err: dErrors.New(dErrors.CodeUnavailable, "carrier registry is unavailable")}
		rec := postVerify(t, newRouter(svc), map[string]string{"mc_number": "123456"})
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var envelope map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
		assert.Equal(t, "service_unavailable", envelope["error"])
		assert.Equal(t, "carrier registry is unavailable", envelope["error_description"])
	})

	t.Run("internal errors hide details", func(t *testing.T) {
		svc := &fakeService{err: dErrors.New(dErrors.CodeInternal, "pgx pool exhausted")}
		rec := postVerify(t, newRouter(svc), map[string]string{"mc_number": "123456"})
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var envelope map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
		assert.Empty(t, envelope["error_description"])
	})
}

func TestVerifyRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     VerifyRequest
		wantErr bool
	}{
		{"mc number only", VerifyRequest{MCNumber: "123456"}, false},
		{"dot number only", VerifyRequest{DOTNumber: "7654321"}, false},
		{"carrier id only", VerifyRequest{CarrierID: "crm-1"}, false},
		{"all empty", VerifyRequest{}, true},
		{"whitespace only", VerifyRequest{MCNumber: "   "}, true},
		{"carrier id too long", VerifyRequest{CarrierID: string(make([]byte, 65))}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
