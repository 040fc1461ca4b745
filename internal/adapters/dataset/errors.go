package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNotFound      = errors.New("dataset file not found")
	ErrMissingColumn = errors.New("required column missing")
)
