package postgres

import "errors"

var (
	// ErrConnect is returned when the database cannot be reached.
	ErrConnect = errors.New("postgres: connect")
	// ErrClosed is returned by writes after Close.
	ErrClosed = errors.New("postgres: sink closed")
)
