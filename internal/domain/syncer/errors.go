package syncer

import "errors"

// Sentinel kinds for sync errors.
var (
	// ErrSyncConflict means the ledger and permanent store could not be
	// reconciled automatically. Retrying risks a double write, so this
	// escalates to manual reconciliation.
	ErrSyncConflict = errors.New("sync conflict: manual reconciliation required")

	// ErrInFlight means another sync attempt holds the claim for this hash.
	ErrInFlight = errors.New("sync already in flight")

	// ErrRetriesExhausted means the bounded retry budget ran out on
	// transient failures.
	ErrRetriesExhausted = errors.New("sync retries exhausted")
)
