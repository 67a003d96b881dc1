package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrClosed      = errors.New("store is closed")
	ErrInvalidPath = errors.New("storage path is required")
)
