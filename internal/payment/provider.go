// Package payment defines the interface to the external checkout provider.
// The core only needs to ask whether the session behind a client reference
// has been completed; issuing checkout sessions and collecting money are the
// provider's business.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Status is the state of a checkout session as reported by the provider.
type Status string

const (
	StatusComplete Status = "complete"
	StatusOpen     Status = "open"
	StatusExpired  Status = "expired"
)

// Provider looks up the state of a checkout session by the client reference
// that was attached to it when the reservation was created.
type Provider interface {
	SessionStatus(ctx context.Context, clientRef string) (Status, error)
}

// HTTPProvider queries a checkout service over HTTP.  The service is
// expected to expose GET /api/checkout/sessions?client_reference_id=<ref>
// returning {"status": "..."}.
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPProvider returns a provider bound to the given base URL.
func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionStatus fetches the session for the client reference and returns its
// status.  Transport and non-200 responses are reported as errors so the
// caller can distinguish infrastructure failures from an incomplete payment.
func (p *HTTPProvider) SessionStatus(ctx context.Context, clientRef string) (Status, error) {
	u := fmt.Sprintf("%s/api/checkout/sessions?client_reference_id=%s", p.baseURL, url.QueryEscape(clientRef))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create session lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query checkout session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("session lookup failed with status: %d", resp.StatusCode)
	}

	var body struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode session response: %w", err)
	}
	return body.Status, nil
}
