// Package ledger defines the idempotency ledger for permanent-store writes.
package ledger

import (
	"context"
	"sync"
	"time"
)

// ClaimStatus is the outcome of an atomic claim attempt.
type ClaimStatus int

// Claim outcomes.
const (
	// StatusClaimed means the hash was newly claimed; the caller must
	// Confirm after a successful write or Release on failure.
	StatusClaimed ClaimStatus = iota
	// StatusSynced means the hash was already confirmed; no write needed.
	StatusSynced
	// StatusInFlight means another sync attempt holds the claim.
	StatusInFlight
)

// Record is one confirmed sync ledger entry.
type Record struct {
	Hash            string
	ModelIdentifier string
	SubmittedAt     time.Time
	SyncedAt        time.Time
}

// Ledger records content hashes already written to the permanent store,
// guaranteeing at-most-once persistence under retried sync attempts.
type Ledger interface {
	// Claim atomically checks the hash and marks it in-flight if unseen.
	// This is the ONLY gate in front of a permanent-store write.
	Claim(ctx context.Context, hash string) (ClaimStatus, error)

	// Confirm marks a claimed hash as durably synced.
	Confirm(ctx context.Context, rec Record) error

	// Release drops an in-flight claim so the sync can be retried.
	Release(ctx context.Context, hash string) error

	// Size returns the number of confirmed records.
	Size(ctx context.Context) (int64, error)
}

// entryState tracks one hash inside the in-memory ledger.
type entryState int

const (
	entryInFlight entryState = iota
	entrySynced
)

// memoryLedger implements Ledger with a locked map. It covers single-process
// deployments and tests; the SQLite ledger is the durable variant.
type memoryLedger struct {
	mu      sync.Mutex
	entries map[string]entryState
	synced  int64
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() Ledger {
	return &memoryLedger{entries: make(map[string]entryState)}
}

func (l *memoryLedger) Claim(ctx context.Context, hash string) (ClaimStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch state, ok := l.entries[hash]; {
	case !ok:
		l.entries[hash] = entryInFlight
		return StatusClaimed, nil
	case state == entrySynced:
		return StatusSynced, nil
	default:
		return StatusInFlight, nil
	}
}

func (l *memoryLedger) Confirm(ctx context.Context, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if state, ok := l.entries[rec.Hash]; !ok || state != entryInFlight {
		return ErrNotClaimed
	}
	l.entries[rec.Hash] = entrySynced
	l.synced++
	return nil
}

func (l *memoryLedger) Release(ctx context.Context, hash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if state, ok := l.entries[hash]; ok && state == entryInFlight {
		delete(l.entries, hash)
	}
	return nil
}

func (l *memoryLedger) Size(ctx context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.synced, nil
}
