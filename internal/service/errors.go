package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRideID is returned when a ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidBookingID is returned when a booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidDriverID is returned when a driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidPassengerID is returned when a passenger ID is empty.
	ErrInvalidPassengerID = errors.New("invalid passenger id")

	// ErrInvalidSeatCount is returned when a seat count is not positive.
	ErrInvalidSeatCount = errors.New("seat count must be at least 1")

	// ErrInvalidSeatCapacity is returned when a ride is published with a
	// non-positive seat capacity.
	ErrInvalidSeatCapacity = errors.New("seat capacity must be at least 1")

	// ErrInvalidPrice is returned when a price per seat is not positive.
	ErrInvalidPrice = errors.New("price per seat must be positive")

	// ErrInvalidRoute is returned when from/to locations are missing.
	ErrInvalidRoute = errors.New("from and to locations are required")

	// ErrInvalidDepartureTime is returned when the departure time is not
	// a valid HH:MM wall-clock value.
	ErrInvalidDepartureTime = errors.New("departure time must be HH:MM")

	// ErrInvalidTransition is returned when the booking state machine
	// rejects a transition. The caller's view is stale: refresh.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrNotRideOwner is returned when someone other than the ride's
	// driver attempts a driver-only operation.
	ErrNotRideOwner = errors.New("caller does not own this ride")

	// ErrNotBookingOwner is returned when someone other than the
	// booking's passenger attempts a passenger-only operation.
	ErrNotBookingOwner = errors.New("caller does not own this booking")

	// ErrOwnRide is returned when a driver attempts to book seats on
	// their own ride.
	ErrOwnRide = errors.New("cannot book own ride")

	// ErrPublishInProgress is returned when another posting by the same
	// driver is being published concurrently.
	ErrPublishInProgress = errors.New("another posting by this driver is in progress")
)

// DuplicatePostingError is returned when a driver publishes a ride
// materially identical to an existing active posting. It carries the
// conflicting ride's ID so the client can disambiguate.
type DuplicatePostingError struct {
	ConflictingRideID string
}

func (e *DuplicatePostingError) Error() string {
	return fmt.Sprintf("duplicate ride posting (conflicts with ride %s)", e.ConflictingRideID)
}

// IsDuplicatePosting reports whether err is a DuplicatePostingError.
func IsDuplicatePosting(err error) bool {
	var dup *DuplicatePostingError
	return errors.As(err, &dup)
}
