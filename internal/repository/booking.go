package repository

import (
	"context"

	"carpool/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// ListByRide retrieves all bookings placed against a ride.
	ListByRide(ctx context.Context, rideID string) ([]*domain.Booking, error)

	// ListByPassenger retrieves all bookings placed by a passenger.
	ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Booking, error)

	// UpdateStatus transitions a booking to the given status on the
	// condition that it currently holds one of the expected statuses
	// (compare-and-swap). Returns ErrStaleState when the condition does
	// not hold and ErrNotFound when the booking does not exist.
	UpdateStatus(ctx context.Context, id string, to domain.BookingStatus, expected ...domain.BookingStatus) error
}
