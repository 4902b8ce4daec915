// Package benchmarks fetches canonical sample-id sets from the external
// benchmark-definition source.
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/telcobench/transit/pkg/logger"
)

// Default client configuration constants.
const (
	defaultRequestTimeout = 10 * time.Second
	defaultMaxAttempts    = 3
	defaultBackoffBase    = time.Second
	defaultCacheTTL       = 10 * time.Minute
)

// sampleSetResponse mirrors the source's JSON payload.
type sampleSetResponse struct {
	SampleIDs []string `json:"sample_ids"`
}

// cached is one TTL cache entry.
type cached struct {
	ids     []string
	fetched time.Time
}

// Client queries the canonical sample-set source over HTTP. Results are
// cached per (benchmark, version) since canonical sets change only when a
// benchmark version is published.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration
	cacheTTL    time.Duration

	mu    sync.Mutex
	cache map[string]cached

	logger logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRequestTimeout bounds each fetch attempt.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxAttempts sets the bounded retry count for fetches.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoffBase sets the base delay for exponential backoff between
// attempts (base, 2*base, 4*base, ...).
func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoffBase = d
		}
	}
}

// WithCacheTTL sets how long fetched sample sets are reused.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.cacheTTL = d
		}
	}
}

// NewClient creates a sample-set client for the given source base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{},
		timeout:     defaultRequestTimeout,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		cacheTTL:    defaultCacheTTL,
		cache:       make(map[string]cached),
		logger:      logger.Get().Named("benchmarks"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SampleIDs returns the canonical sample-id set for a benchmark version.
// Transient failures are retried with exponential backoff up to the bounded
// attempt count, then surfaced as ErrUnavailable.
func (c *Client) SampleIDs(ctx context.Context, benchmark, version string) ([]string, error) {
	key := benchmark + "@" + version

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Since(entry.fetched) < c.cacheTTL {
		ids := entry.ids
		c.mu.Unlock()
		return ids, nil
	}
	c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch %s: %w", key, ctx.Err())
			case <-time.After(delay):
			}
		}

		ids, err := c.fetch(ctx, benchmark, version)
		if err == nil {
			c.mu.Lock()
			c.cache[key] = cached{ids: ids, fetched: time.Now()}
			c.mu.Unlock()
			return ids, nil
		}
		lastErr = err
		c.logger.Warn(ctx, "sample set fetch failed",
			logger.String("benchmark", benchmark),
			logger.String("version", version),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrUnavailable, key, c.maxAttempts, lastErr)
}

// fetch performs one bounded request against the source.
func (c *Client) fetch(ctx context.Context, benchmark, version string) ([]string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/benchmarks/%s/%s/samples", c.baseURL, version, benchmark)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var payload sampleSetResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload.SampleIDs, nil
}
