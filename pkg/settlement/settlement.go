// Package settlement is the boundary to the opaque proof settlement service.
//
// The pipeline only hands over a snapshot commitment and its content address;
// proving and on-chain settlement happen entirely on the other side.
package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Settler accepts a merged snapshot's commitment and content address and
// settles it asynchronously to the target ledger.
type Settler interface {
	Settle(ctx context.Context, commitment, cid string) (bool, error)
}

// HTTPSettler posts settlement requests to the proving service.
type HTTPSettler struct {
	url    string
	secret string
	client *http.Client
}

var _ Settler = (*HTTPSettler)(nil)

// NewHTTPSettler creates a settler client.
func NewHTTPSettler(url, secret string) *HTTPSettler {
	return &HTTPSettler{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Settle submits a commitment and interprets the service's boolean outcome.
func (s *HTTPSettler) Settle(ctx context.Context, commitment, cid string) (bool, error) {
	body, err := json.Marshal(map[string]string{
		"commitment": commitment,
		"cid":        cid,
	})
	if err != nil {
		return false, fmt.Errorf("encode settlement request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build settlement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.secret)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("settlement request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("settlement service returned %d", resp.StatusCode)
	}

	var out struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode settlement response: %w", err)
	}
	return out.Success, nil
}

// NoopSettler is used when settlement is disabled in configuration.
type NoopSettler struct{}

var _ Settler = NoopSettler{}

// Settle reports success without doing anything.
func (NoopSettler) Settle(context.Context, string, string) (bool, error) {
	return true, nil
}
