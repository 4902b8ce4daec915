package smoketest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/telcobench/transit/pkg/logger"
)

// HTTPClient wraps http.Client with a shared timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// submitSubmissions pushes all bundles through POST /submissions with a
// worker pool, approving every case that comes back ready for review.
func submitSubmissions(ctx context.Context, config *Config, subs []submissionPayload, stats *Stats) error {
	logger.Get().Info(ctx, "submitting bundles",
		logger.Int("count", len(subs)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)

	var (
		submitted       int64
		readyForReview  int64
		needsWork       int64
		failed          int64
		approved        int64
		approvalsFailed int64
	)

	subChan := make(chan submissionPayload, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range subChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				view, err := submitOne(ctx, client, config.BaseURL, sub)
				atomic.AddInt64(&submitted, 1)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						logger.Get().Warn(ctx, "submission failed", logger.Error(err))
					}
					continue
				}

				switch view.State {
				case "ready_for_review":
					atomic.AddInt64(&readyForReview, 1)
					if err := approveCase(ctx, client, config.BaseURL, view.CaseID); err != nil {
						atomic.AddInt64(&approvalsFailed, 1)
						if config.Verbose {
							logger.Get().Warn(ctx, "approval failed",
								logger.String("caseID", view.CaseID), logger.Error(err))
						}
					} else {
						atomic.AddInt64(&approved, 1)
					}
				case "needs_work":
					atomic.AddInt64(&needsWork, 1)
					if config.Verbose {
						logger.Get().Info(ctx, "case needs work",
							logger.String("caseID", view.CaseID),
							logger.Any("reasons", view.Reasons))
					}
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(subChan)
		for _, sub := range subs {
			select {
			case <-ctx.Done():
				return
			case subChan <- sub:
			}
		}
	}()

	wg.Wait()

	stats.SubmissionsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.CasesReadyForReview = int(atomic.LoadInt64(&readyForReview))
	stats.CasesNeedsWork = int(atomic.LoadInt64(&needsWork))
	stats.SubmissionsFailed = int(atomic.LoadInt64(&failed))
	stats.CasesApproved = int(atomic.LoadInt64(&approved))
	stats.ApprovalsFailed = int(atomic.LoadInt64(&approvalsFailed))

	logger.Get().Info(ctx, "submission phase completed",
		logger.Int("submitted", stats.SubmissionsSubmitted),
		logger.Int("readyForReview", stats.CasesReadyForReview),
		logger.Int("needsWork", stats.CasesNeedsWork),
		logger.Int("approved", stats.CasesApproved),
		logger.Int("failed", stats.SubmissionsFailed))
	return nil
}

// submitOne posts a single bundle and decodes the resulting case view.
func submitOne(ctx context.Context, client *HTTPClient, baseURL string, sub submissionPayload) (caseView, error) {
	resp, err := client.Post(ctx, baseURL+"/submissions", sub)
	if err != nil {
		return caseView{}, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return caseView{}, err
	}
	if resp.StatusCode != http.StatusCreated {
		return caseView{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	var view caseView
	if err := json.Unmarshal(body, &view); err != nil {
		return caseView{}, fmt.Errorf("failed to decode case view: %w", err)
	}
	return view, nil
}

// approveCase issues the reviewer approval for a validated case.
func approveCase(ctx context.Context, client *HTTPClient, baseURL, caseID string) error {
	resp, err := client.Post(ctx, baseURL+"/cases/"+caseID+"/approve", struct{}{})
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// listCases fetches the currently open cases.
func listCases(ctx context.Context, client *HTTPClient, baseURL string) ([]caseView, error) {
	resp, err := client.Get(ctx, baseURL+"/cases")
	if err != nil {
		return nil, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	var views []caseView
	if err := json.Unmarshal(body, &views); err != nil {
		return nil, fmt.Errorf("failed to decode case list: %w", err)
	}
	return views, nil
}
