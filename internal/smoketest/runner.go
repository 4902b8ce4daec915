package smoketest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/telcobench/transit/pkg/logger"
)

const drainPollInterval = 2 * time.Second

// Run executes the complete smoke test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting transit smoke test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("submissions", config.NumSubmissions),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("drainWait", config.DrainWait.String()))

	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	subs := generateSubmissions(ctx, config, stats)

	if err := submitSubmissions(ctx, config, subs, stats); err != nil {
		return fmt.Errorf("submission phase failed: %w", err)
	}

	if err := waitForDrain(ctx, config, stats); err != nil {
		return fmt.Errorf("drain verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "smoke test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// waitForDrain polls the case list until every approved case has synced and
// left the registry, or the configured drain window runs out. Cases still in
// needs_work are expected to remain; only approved ones must drain.
func waitForDrain(ctx context.Context, config *Config, stats *Stats) error {
	logger.Get().Info(ctx, "waiting for approved cases to sync")

	client := newHTTPClient(config.Timeout)
	deadline := time.Now().Add(config.DrainWait)

	for {
		views, err := listCases(ctx, client, config.BaseURL)
		if err != nil {
			return err
		}

		pending := 0
		for _, view := range views {
			if view.State == "approved" || view.State == "validating" {
				pending++
			}
		}
		stats.CasesRemaining = len(views)

		if pending == 0 {
			logger.Get().Info(ctx, "all approved cases drained",
				logger.Int("remainingCases", len(views)))
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%d cases still pending sync after %s", pending, config.DrainWait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(drainPollInterval):
		}
	}
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.SubmissionsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("submissionsGenerated", stats.SubmissionsGenerated),
		logger.Int("submissionsSubmitted", stats.SubmissionsSubmitted),
		logger.Int("casesReadyForReview", stats.CasesReadyForReview),
		logger.Int("casesNeedsWork", stats.CasesNeedsWork),
		logger.Int("submissionsFailed", stats.SubmissionsFailed),
		logger.Int("casesApproved", stats.CasesApproved),
		logger.Int("approvalsFailed", stats.ApprovalsFailed),
		logger.Int("casesRemaining", stats.CasesRemaining),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("submissionsPerSecond", perSecond))
}
