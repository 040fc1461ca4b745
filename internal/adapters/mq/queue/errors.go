package queue

import "errors"

// ErrFull is returned by callers when Enqueue refuses an item.
var ErrFull = errors.New("queue full or closed")
