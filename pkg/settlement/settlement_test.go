package settlement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSettlerSubmitsCommitment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer settle-secret", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "abc123", body["commitment"])
		assert.Equal(t, "QmSnapshot", body["cid"])

		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	s := NewHTTPSettler(srv.URL, "settle-secret")
	ok, err := s.Settle(context.Background(), "abc123", "QmSnapshot")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHTTPSettlerRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	s := NewHTTPSettler(srv.URL, "secret")
	ok, err := s.Settle(context.Background(), "abc123", "QmSnapshot")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPSettlerNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewHTTPSettler(srv.URL, "secret")
	ok, err := s.Settle(context.Background(), "abc123", "QmSnapshot")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNoopSettlerAlwaysAccepts(t *testing.T) {
	ok, err := NoopSettler{}.Settle(context.Background(), "any", "QmAny")
	require.NoError(t, err)
	assert.True(t, ok)
}
