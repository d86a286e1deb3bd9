package alice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "tradebook/internal/domain/entity/trades"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchTradeBook(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL}, nil)
	body, err := client.FetchTradeBook(context.Background(), "tok-123")

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.JSONEq(t, `{"data":[]}`, string(body))
}

func TestClient_UpstreamError(t *testing.T) {
	long := strings.Repeat("x", 1500)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(long))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, RequestsPerSecond: 10}, nil)
	_, err := client.FetchTradeBook(context.Background(), "tok")

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnauthorized, upstream.Status)
	assert.Len(t, upstream.Body, domain.MaxErrorBody)
}

func TestClient_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(Config{Endpoint: srv.URL}, nil)
	_, err := client.FetchTradeBook(ctx, "tok")

	assert.Error(t, err)
}

func TestNewClient_DefaultEndpoint(t *testing.T) {
	client := NewClient(Config{}, nil)

	assert.Equal(t, DefaultTradesEndpoint, client.Endpoint())
	assert.Nil(t, client.limiter)
}
