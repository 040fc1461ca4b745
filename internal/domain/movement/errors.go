package movement

import "errors"

// Sentinel kinds for movement errors.
var (
	// ErrUnavailable means a roster needed for the transition could not be
	// loaded. Callers skip work that depends on the transition.
	ErrUnavailable = errors.New("movement data unavailable")
)
