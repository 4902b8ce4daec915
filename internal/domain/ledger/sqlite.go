package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_records (
	content_hash  TEXT PRIMARY KEY,
	model         TEXT,
	submitted_at  TEXT,
	state         TEXT NOT NULL,
	synced_at     TEXT
);
`

const (
	stateInFlight = "in_flight"
	stateSynced   = "synced"
)

// sqliteLedger implements Ledger on SQLite so confirmed sync records survive
// process restarts. A leftover in-flight row from a crashed attempt surfaces
// as StatusInFlight; the sync client reconciles it against the store.
type sqliteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens the ledger database and runs migrations.
func NewSQLiteLedger(path string) (Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return &sqliteLedger{db: db}, nil
}

func (l *sqliteLedger) Claim(ctx context.Context, hash string) (ClaimStatus, error) {
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO sync_records (content_hash, state) VALUES (?, ?)
		 ON CONFLICT(content_hash) DO NOTHING`,
		hash, stateInFlight,
	)
	if err != nil {
		return StatusInFlight, fmt.Errorf("claim %s: %w", hash, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return StatusClaimed, nil
	}

	var state string
	err = l.db.QueryRowContext(ctx,
		`SELECT state FROM sync_records WHERE content_hash = ?`, hash,
	).Scan(&state)
	if err != nil {
		return StatusInFlight, fmt.Errorf("claim %s: %w", hash, err)
	}
	if state == stateSynced {
		return StatusSynced, nil
	}
	return StatusInFlight, nil
}

func (l *sqliteLedger) Confirm(ctx context.Context, rec Record) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE sync_records
		 SET state = ?, model = ?, submitted_at = ?, synced_at = ?
		 WHERE content_hash = ? AND state = ?`,
		stateSynced,
		rec.ModelIdentifier,
		rec.SubmittedAt.Format(time.RFC3339),
		rec.SyncedAt.Format(time.RFC3339),
		rec.Hash,
		stateInFlight,
	)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", rec.Hash, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotClaimed
	}
	return nil
}

func (l *sqliteLedger) Release(ctx context.Context, hash string) error {
	_, err := l.db.ExecContext(ctx,
		`DELETE FROM sync_records WHERE content_hash = ? AND state = ?`,
		hash, stateInFlight,
	)
	if err != nil {
		return fmt.Errorf("release %s: %w", hash, err)
	}
	return nil
}

func (l *sqliteLedger) Size(ctx context.Context) (int64, error) {
	var n int64
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_records WHERE state = ?`, stateSynced,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ledger size: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (l *sqliteLedger) Close() error {
	return l.db.Close()
}
