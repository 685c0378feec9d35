// Package registry queries the external motor-carrier regulatory registry and
// maps its loosely-typed payloads into canonical snapshots. The client issues
// exactly one lookup per call: retry policy belongs to the verification
// service, not here.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"loadvoice/internal/carrier"
)

// Lookup identifies the carrier to query. Numbers must already be normalized;
// the client does not re-normalize.
type Lookup struct {
	MCNumber  string
	DOTNumber string
}

// Client is the port the verification service fetches snapshots through.
type Client interface {
	// Fetch returns the carrier's snapshot, ErrCarrierNotFound for an unknown
	// identifier, or an *UpstreamError for infrastructure failures.
	Fetch(ctx context.Context, q Lookup) (*carrier.RegistrySnapshot, error)
}

// HTTPClient talks to the registry's read-only carrier endpoint.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	now     func() time.Time
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPDoer swaps the underlying http.Client, mainly for tests.
func WithHTTPDoer(c *http.Client) HTTPClientOption {
	return func(h *HTTPClient) { h.http = c }
}

// WithClock pins the clock used for FetchedAt and authority-age derivation.
func WithClock(now func() time.Time) HTTPClientOption {
	return func(h *HTTPClient) { h.now = now }
}

// NewHTTPClient constructs a registry client for the given base URL.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *HTTPClient) Fetch(ctx context.Context, q Lookup) (*carrier.RegistrySnapshot, error) {
	if q.MCNumber == "" && q.DOTNumber == "" {
		return nil, NewUpstreamError(ErrorInternal, "lookup has no registry number", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.lookupURL(q), nil)
	if err != nil {
		return nil, NewUpstreamError(ErrorInternal, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewUpstreamError(ErrorTimeout, "registry lookup timed out", err)
		}
		return nil, NewUpstreamError(ErrorOutage, "registry unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrCarrierNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &UpstreamError{Category: ErrorRateLimited, StatusCode: resp.StatusCode, Message: "registry rate limit"}
	case resp.StatusCode >= 500:
		return nil, &UpstreamError{Category: ErrorOutage, StatusCode: resp.StatusCode, Message: "registry server error"}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &UpstreamError{Category: ErrorInternal, StatusCode: resp.StatusCode, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, NewUpstreamError(ErrorOutage, "read response body", err)
	}

	raw, err := decodeCarrierDocument(body)
	if err != nil {
		return nil, NewUpstreamError(ErrorBadData, "malformed registry payload", err)
	}
	if raw == nil {
		// 2xx with a null carrier: the registry answered and the carrier does
		// not exist. Expected outcome, not a fault.
		return nil, ErrCarrierNotFound
	}

	return mapSnapshot(*raw, c.now()), nil
}

func (c *HTTPClient) lookupURL(q Lookup) string {
	params := url.Values{}
	if q.MCNumber != "" {
		params.Set("mc_number", q.MCNumber)
	}
	if q.DOTNumber != "" {
		params.Set("dot_number", q.DOTNumber)
	}
	return c.baseURL + "/v1/carriers?" + params.Encode()
}
