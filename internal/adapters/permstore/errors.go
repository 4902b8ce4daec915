package permstore

import "errors"

// Sentinel kinds for permanent store errors.
var (
	ErrBadStatus = errors.New("unexpected permanent store status")
)
