package ledger

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrNotClaimed = errors.New("hash not claimed")
	ErrClosed     = errors.New("ledger closed")
)
