package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadvoice/internal/carrier"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, "test-key", 2*time.Second)
}

func TestHTTPClientFetch(t *testing.T) {
	t.Run("maps a known carrier", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "123456", r.URL.Query().Get("mc_number"))
			assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"carrier": {
				"legal_name": "Acme Freight LLC",
				"operating_status": "AUTHORIZED",
				"safety_rating": "SATISFACTORY"
			}}`))
		})

		snap, err := client.Fetch(context.Background(), Lookup{MCNumber: "123456"})
		require.NoError(t, err)
		assert.Equal(t, "Acme Freight LLC", snap.LegalName)
		assert.Equal(t, carrier.StatusAuthorized, snap.OperatingStatus)
		assert.False(t, snap.FetchedAt.IsZero())
	})

	t.Run("null carrier on 2xx is not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"carrier": null}`))
		})

		_, err := client.Fetch(context.Background(), Lookup{MCNumber: "999999999"})
		assert.ErrorIs(t, err, ErrCarrierNotFound)
	})

	t.Run("404 is not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.Fetch(context.Background(), Lookup{DOTNumber: "445566"})
		assert.ErrorIs(t, err, ErrCarrierNotFound)
	})

	t.Run("5xx is a retryable outage", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.Fetch(context.Background(), Lookup{MCNumber: "123"})
		var ue *UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, ErrorOutage, ue.Category)
		assert.Equal(t, http.StatusBadGateway, ue.StatusCode)
		assert.True(t, IsRetryable(err))
	})

	t.Run("429 is retryable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.Fetch(context.Background(), Lookup{MCNumber: "123"})
		var ue *UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, ErrorRateLimited, ue.Category)
		assert.True(t, IsRetryable(err))
	})

	t.Run("malformed payload is bad data, not retryable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"carrier": [`))
		})

		_, err := client.Fetch(context.Background(), Lookup{MCNumber: "123"})
		var ue *UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, ErrorBadData, ue.Category)
		assert.False(t, IsRetryable(err))
	})

	t.Run("unreachable registry is an outage", func(t *testing.T) {
		client := NewHTTPClient("http://127.0.0.1:1", "", 500*time.Millisecond)

		_, err := client.Fetch(context.Background(), Lookup{MCNumber: "123"})
		var ue *UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.True(t, ue.Retryable())
	})

	t.Run("empty lookup is rejected", func(t *testing.T) {
		client := NewHTTPClient("http://registry.test", "", time.Second)

		_, err := client.Fetch(context.Background(), Lookup{})
		var ue *UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.False(t, errors.Is(err, ErrCarrierNotFound))
	})
}
