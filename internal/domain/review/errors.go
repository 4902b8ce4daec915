package review

import "errors"

// Sentinel kinds for review errors.
var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrCaseNotFound      = errors.New("review case not found")
	ErrWrongActor        = errors.New("actor not allowed for transition")
)
