package repository

import "context"

// UnitOfWork runs a function against ride and booking repositories
// bound to a single atomic unit: either every write inside fn commits
// or none do. The booking workflow uses it to pair a status swap with
// its seat movement, so a failure in one can never strand the other.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(rides RideRepository, bookings BookingRepository) error) error
}
