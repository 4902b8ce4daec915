package transit

import "errors"

// Sentinel kinds for transit store errors.
var (
	ErrNotFound = errors.New("transit artifact not found")
)
