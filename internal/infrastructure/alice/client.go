package alice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "tradebook/internal/domain/entity/trades"
	"tradebook/internal/domain/interfaces"

	"golang.org/x/time/rate"
)

const DefaultTradesEndpoint = "https://ant.aliceblueonline.com/open-api/od/v1/trades"

// Config controls how the trade book endpoint is called.
type Config struct {
	Endpoint string
	// Timeout bounds one request; zero leaves the call unbounded.
	Timeout time.Duration
	// RequestsPerSecond throttles outgoing calls; zero disables throttling.
	RequestsPerSecond float64
}

type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
}

var _ interfaces.TradeBookClient = (*Client)(nil)

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultTradesEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Client{endpoint: cfg.Endpoint, http: httpClient, limiter: limiter}
}

// Endpoint returns the trade book URL in use.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchTradeBook returns the raw response body. Non-2xx answers come back as *domain.UpstreamError.
func (c *Client) FetchTradeBook(ctx context.Context, token string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewUpstreamError(resp.StatusCode, string(body))
	}
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
