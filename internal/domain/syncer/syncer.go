// Package syncer performs the one-time transfer of approved submissions
// into the permanent store.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/telcobench/transit/internal/adapters/permstore"
	"github.com/telcobench/transit/internal/domain/ledger"
	"github.com/telcobench/transit/internal/domain/model"
	"github.com/telcobench/transit/pkg/logger"
	"github.com/telcobench/transit/pkg/metrics"
)

// Default sync configuration constants.
const (
	defaultMaxAttempts = 3
	defaultBackoffBase = time.Second
)

// PermanentStore is what the sync client needs from the durable store.
type PermanentStore interface {
	AppendOrGet(ctx context.Context, hash string, rec permstore.Record) (permstore.Outcome, error)
	Contains(ctx context.Context, hash string) (bool, error)
}

// Client drives the idempotent sync protocol: claim the content hash in the
// ledger, append to the permanent store, confirm the claim. The ledger gate
// keeps concurrent attempts for the same submission from both writing.
type Client struct {
	ledger      ledger.Ledger
	store       PermanentStore
	maxAttempts int
	backoffBase time.Duration
	logger      logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithMaxAttempts bounds retries on transient store failures.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoffBase sets the base delay for exponential backoff.
func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoffBase = d
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a sync client over the given ledger and permanent store.
func New(ldg ledger.Ledger, store PermanentStore, opts ...Option) *Client {
	c := &Client{
		ledger:      ldg,
		store:       store,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		logger:      logger.Get().Named("syncer"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sync persists the submission into the permanent store at most once.
// Re-invoking with the same content is safe: the ledger short-circuits
// confirmed hashes without touching the store.
func (c *Client) Sync(ctx context.Context, sub model.Submission) error {
	start := time.Now()
	defer func() {
		metrics.RecordSyncLatency(float64(time.Since(start).Milliseconds()))
	}()
	metrics.RecordSyncAttempt()

	hash := ContentHash(sub)

	// Ledger steps must complete even if the case is cancelled mid-sync,
	// otherwise a partial write is orphaned.
	ledgerCtx := context.WithoutCancel(ctx)

	status, err := c.ledger.Claim(ledgerCtx, hash)
	if err != nil {
		return fmt.Errorf("claim %s: %w", hash, err)
	}
	switch status {
	case ledger.StatusSynced:
		metrics.RecordSyncDuplicate()
		c.logger.Debug(ctx, "submission already synced",
			logger.String("model", sub.ModelIdentifier),
			logger.String("hash", hash),
		)
		return nil
	case ledger.StatusInFlight:
		// A crashed attempt can leave a claim behind after the store write
		// landed. Reconcile against the store's own record before giving up.
		present, verr := c.store.Contains(ledgerCtx, hash)
		if verr != nil {
			return fmt.Errorf("%s: %w", hash, ErrInFlight)
		}
		if present {
			return c.confirm(ledgerCtx, hash, sub)
		}
		return fmt.Errorf("%s: %w", hash, ErrInFlight)
	case ledger.StatusClaimed:
		// proceed to write
	}

	rec := permstore.RecordFor(sub)
	var lastErr error
attempts:
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				break attempts
			case <-time.After(delay):
			}
		}

		outcome, err := c.store.AppendOrGet(ctx, hash, rec)
		if err == nil {
			if outcome == permstore.OutcomeWritten {
				metrics.RecordSyncWritten()
			} else {
				metrics.RecordSyncDuplicate()
			}
			return c.confirm(ledgerCtx, hash, sub)
		}
		lastErr = err

		// The failure is ambiguous: the write may have landed before the
		// connection broke. Verify against the store before retrying, since
		// a blind retry could create a duplicate.
		present, verr := c.store.Contains(ledgerCtx, hash)
		if verr != nil {
			metrics.RecordSyncConflict()
			c.logger.Error(ctx, "post-write verification failed; leaving claim for manual reconciliation",
				logger.String("hash", hash),
				logger.Error(verr),
			)
			return fmt.Errorf("%s: %w", hash, ErrSyncConflict)
		}
		if present {
			metrics.RecordSyncWritten()
			return c.confirm(ledgerCtx, hash, sub)
		}

		c.logger.Warn(ctx, "permanent store write failed; will retry",
			logger.String("hash", hash),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}

	// Release the claim so a later sync attempt can run the dedup check again.
	if rerr := c.ledger.Release(ledgerCtx, hash); rerr != nil {
		c.logger.Error(ctx, "failed to release sync claim", logger.String("hash", hash), logger.Error(rerr))
	}
	return fmt.Errorf("%s: %w: %v", hash, ErrRetriesExhausted, lastErr)
}

// confirm records the durable sync in the ledger.
func (c *Client) confirm(ctx context.Context, hash string, sub model.Submission) error {
	rec := ledger.Record{
		Hash:            hash,
		ModelIdentifier: sub.ModelIdentifier,
		SubmittedAt:     sub.SubmittedAt,
		SyncedAt:        time.Now().UTC(),
	}
	if err := c.ledger.Confirm(ctx, rec); err != nil {
		return fmt.Errorf("confirm %s: %w", hash, err)
	}
	return nil
}
