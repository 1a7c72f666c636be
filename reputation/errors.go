package reputation

import "errors"

var (
	// ErrUnknownAction is returned when an award names an action outside the
	// recognized set.
	ErrUnknownAction = errors.New("reputation: unknown action")

	// ErrAlreadyAwarded signals a duplicate badge award attempt. Callers treat
	// it as a no-op success, never as a failure.
	ErrAlreadyAwarded = errors.New("reputation: badge already awarded")

	// ErrBadCriteria is returned when a badge definition carries criteria that
	// cannot be parsed or reference an unregistered metric.
	ErrBadCriteria = errors.New("reputation: invalid badge criteria")
)
