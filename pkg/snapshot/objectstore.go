package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ObjectStore is the secondary read-only fallback for snapshot payloads,
// used when the content-addressed network is unreachable.
type ObjectStore interface {
	// GetObject returns the object at bucket/path, or ErrObjectNotFound.
	GetObject(ctx context.Context, bucket, path string) ([]byte, error)
}

// HTTPObjectStore reads public objects from a Supabase-storage-style REST
// endpoint.
type HTTPObjectStore struct {
	baseURL string
	client  *http.Client
}

var _ ObjectStore = (*HTTPObjectStore)(nil)

// NewHTTPObjectStore creates an object store client.
func NewHTTPObjectStore(baseURL string) *HTTPObjectStore {
	return &HTTPObjectStore{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// GetObject fetches a public object.
func (s *HTTPObjectStore) GetObject(ctx context.Context, bucket, path string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, url.PathEscape(bucket), url.PathEscape(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build object request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("object store get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, path)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("object store get %s: status %d", path, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
