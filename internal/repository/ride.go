package repository

import (
	"context"
	"time"

	"carpool/internal/domain"
)

// RideRepository defines the persistence operations for ride postings.
//
// ReserveSeats and RestoreSeats are the only operations permitted to
// change a ride's available seat count, and each must execute as a
// single atomic conditional statement in the storage engine.
type RideRepository interface {
	// Create persists a new ride posting.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// Search returns active rides matching the query.
	Search(ctx context.Context, q domain.SearchQuery) ([]*domain.Ride, error)

	// FindDuplicate returns the ID of an active ride by the same driver
	// with the same normalized route, date, and time, or ErrNotFound.
	FindDuplicate(ctx context.Context, driverID, from, to string, date time.Time, departureTime string) (string, error)

	// ReserveSeats atomically decrements available seats by the given
	// count, failing with ErrInsufficientSeats if fewer are available
	// or ErrNotFound if no active ride matches.
	ReserveSeats(ctx context.Context, rideID string, seats int) error

	// RestoreSeats atomically increments available seats by the given
	// count, capped at the ride's total capacity.
	RestoreSeats(ctx context.Context, rideID string, seats int) error

	// Update persists mutable ride fields. Never touches seat counts.
	Update(ctx context.Context, ride *domain.Ride) error
}
