package benchmarks

import "errors"

// Sentinel kinds for benchmark source errors.
var (
	ErrUnavailable = errors.New("benchmark source unavailable")
	ErrBadStatus   = errors.New("unexpected benchmark source status")
)
