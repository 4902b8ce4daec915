package validate

import "errors"

// Sentinel kinds for validation errors.
var (
	ErrCanonicalUnavailable = errors.New("canonical sample set unavailable")
)
