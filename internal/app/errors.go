package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrIllegalTransition = errors.New("illegal orchestrator state transition")
	ErrNoRunner          = errors.New("no pipeline configured")
	ErrNoSeasons         = errors.New("no seasons configured")
)
