// Package permstore talks to the durable leaderboard dataset. The store is
// an external collaborator with an append_or_get contract keyed by content
// hash; it has no transactional coupling with the review process.
package permstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/telcobench/transit/internal/domain/model"
)

// Outcome of an append_or_get call.
type Outcome string

// Append outcomes.
const (
	OutcomeWritten        Outcome = "written"
	OutcomeAlreadyPresent Outcome = "already_present"
)

// Default client configuration constants.
const (
	defaultRequestTimeout = 15 * time.Second
)

// Record is the leaderboard row written for one approved submission.
type Record struct {
	Model  string                     `json:"model"`
	Date   string                     `json:"date"`
	Scores map[string]model.ScoreCell `json:"scores"`
}

// RecordFor builds the permanent-store row from a validated submission.
func RecordFor(sub model.Submission) Record {
	return Record{
		Model:  sub.ModelIdentifier,
		Date:   sub.SubmittedAt.Format(model.DateLayout),
		Scores: sub.Scores,
	}
}

// appendResponse mirrors the store's JSON reply.
type appendResponse struct {
	Outcome Outcome `json:"outcome"`
}

// Client is the HTTP client for the permanent store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
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

// WithRequestTimeout bounds each store call.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a permanent store client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		timeout:    defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AppendOrGet writes the record under its content hash, or reports that a
// record with that hash is already present. The call is idempotent on the
// store side; the ledger in front of it keeps it at-most-once on ours.
func (c *Client) AppendOrGet(ctx context.Context, hash string, rec Record) (Outcome, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	url := fmt.Sprintf("%s/records/%s", c.baseURL, hash)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("append_or_get %s: %w", hash, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("append_or_get %s: %w: %d", hash, ErrBadStatus, resp.StatusCode)
	}

	var payload appendResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	switch payload.Outcome {
	case OutcomeWritten, OutcomeAlreadyPresent:
		return payload.Outcome, nil
	default:
		return "", fmt.Errorf("append_or_get %s: %w: outcome %q", hash, ErrBadStatus, payload.Outcome)
	}
}

// Contains is the post-write verification read: it asks the store whether a
// record for the hash exists, without writing anything.
func (c *Client) Contains(ctx context.Context, hash string) (bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/records/%s", c.baseURL, hash)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", hash, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("lookup %s: %w: %d", hash, ErrBadStatus, resp.StatusCode)
	}
}
