package revision

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

func TestHTTPClientListRevisions(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/revisions", r.URL.Path)
		assert.Equal(t, "/application/*", r.URL.Query().Get("key"))
		assert.Equal(t, "prod", r.URL.Query().Get("label"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "reader", user)
		assert.Equal(t, "s3cret", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"Success","data":{"items":[{"key":"/application/a","label":"prod","etag":"e1"}]}}`))
	}))
	defer ts.Close()

	c := NewHTTPClient(HTTPConfig{Timeout: 2 * time.Second}, nil)
	store := models.StoreDefinition{ID: "s1", Kind: models.StoreKindHTTP, Endpoint: ts.URL, Connection: "Id=reader;Secret=s3cret"}

	got, err := c.ListRevisions(context.Background(), store, "/application/*", "prod")
	require.NoError(t, err)
	assert.Equal(t, models.Snapshot{{Key: "/application/a", Label: "prod", ETag: "e1"}}, got)
}

func TestHTTPClientEndpointFromConnection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"Success","data":{"items":[]}}`))
	}))
	defer ts.Close()

	c := NewHTTPClient(HTTPConfig{Timeout: 2 * time.Second}, nil)
	got, err := c.ListRevisions(context.Background(), models.StoreDefinition{ID: "s1", Connection: "Endpoint=" + ts.URL}, "*", "*")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHTTPClientStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		c := NewHTTPClient(HTTPConfig{Timeout: 2 * time.Second}, nil)
		_, err := c.ListRevisions(context.Background(), models.StoreDefinition{ID: "s1", Endpoint: ts.URL}, "*", "*")
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		ts.Close()
	}
}

func TestHTTPClientServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewHTTPClient(HTTPConfig{Timeout: 2 * time.Second}, nil)
	_, err := c.ListRevisions(context.Background(), models.StoreDefinition{ID: "s1", Endpoint: ts.URL}, "*", "*")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPClientMalformedConnection(t *testing.T) {
	c := NewHTTPClient(HTTPConfig{}, nil)
	_, err := c.ListRevisions(context.Background(), models.StoreDefinition{ID: "s1", Endpoint: "http://x", Connection: "garbage"}, "*", "*")
	assert.Error(t, err)
}

func TestHTTPClientRateLimitHonoursContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[]}}`))
	}))
	defer ts.Close()

	c := NewHTTPClient(HTTPConfig{Timeout: 2 * time.Second, RequestsPerSecond: 0.01}, nil)
	store := models.StoreDefinition{ID: "s1", Endpoint: ts.URL}

	_, err := c.ListRevisions(context.Background(), store, "*", "*")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.ListRevisions(ctx, store, "*", "*")
	assert.Error(t, err, "second request must wait for a token")
}
