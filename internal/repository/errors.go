package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInsufficientSeats is returned when a reservation asks for more
	// seats than the ride has available.
	ErrInsufficientSeats = errors.New("insufficient seats available")

	// ErrStaleState is returned when a conditional status update lost a
	// race: the row no longer holds the expected current state. The
	// caller should re-read before retrying.
	ErrStaleState = errors.New("stale state: conditional update matched no rows")
)
