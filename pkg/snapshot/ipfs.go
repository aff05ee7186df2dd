package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// IPFS is the content-addressed store contract: publish a JSON payload and
// receive a pointer, fetch by pointer through a public gateway, and retire
// superseded pointers best-effort.
type IPFS interface {
	Publish(ctx context.Context, payload []byte, name string) (string, error)
	Fetch(ctx context.Context, cid string) ([]byte, error)
	Unpin(ctx context.Context, cid string) error
}

// PinataClient talks to a Pinata-style pinning REST API plus a public gateway.
type PinataClient struct {
	apiURL  string
	gateway string
	jwt     string
	client  *http.Client
}

var _ IPFS = (*PinataClient)(nil)

// NewPinataClient creates a pinning client. gateway is the bare gateway host,
// e.g. "gateway.pinata.cloud".
func NewPinataClient(apiURL, gateway, jwt string) *PinataClient {
	return &PinataClient{
		apiURL:  apiURL,
		gateway: gateway,
		jwt:     jwt,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Publish pins a JSON payload and returns its content address.
func (c *PinataClient) Publish(ctx context.Context, payload []byte, name string) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"pinataContent":  json.RawMessage(payload),
		"pinataMetadata": map[string]string{"name": name},
	})
	if err != nil {
		return "", fmt.Errorf("encode pin request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build pin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: pinning API returned %d", ErrPublishFailed, resp.StatusCode)
	}

	var out struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode pin response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("%w: empty content address", ErrPublishFailed)
	}

	return out.IpfsHash, nil
}

// Fetch retrieves a pinned object through the public gateway.
func (c *PinataClient) Fetch(ctx context.Context, cid string) ([]byte, error) {
	url := fmt.Sprintf("https://%s/ipfs/%s", c.gateway, cid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: gateway returned %d", ErrFetchFailed, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Unpin requests retirement of a superseded pointer.
func (c *PinataClient) Unpin(ctx context.Context, cid string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.apiURL+"/pinning/unpin/"+cid, nil)
	if err != nil {
		return fmt.Errorf("build unpin request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("unpin %s: %w", cid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unpin %s: pinning API returned %d", cid, resp.StatusCode)
	}
	return nil
}
