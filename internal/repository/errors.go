package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStaleStatus is returned when a guarded status update matched no
	// row because the booking is no longer in the expected status.
	ErrStaleStatus = errors.New("booking not in expected status")
)
