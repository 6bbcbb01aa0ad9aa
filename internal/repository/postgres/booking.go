package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `id, ride_id, passenger_id, seats, total_price, status, created_at, updated_at`

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.RideID,
		booking.PassengerID,
		booking.Seats,
		booking.TotalPrice,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

// ListByRide retrieves all bookings placed against a ride.
func (r *BookingRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ride_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, rideID)
}

// ListByPassenger retrieves all bookings placed by a passenger.
func (r *BookingRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE passenger_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, passengerID)
}

func (r *BookingRepository) list(ctx context.Context, query string, arg any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// UpdateStatus performs a compare-and-swap on the booking's status: the
// update applies only while the row holds one of the expected statuses.
// A lost race surfaces as ErrStaleState so the caller can re-read.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, to domain.BookingStatus, expected ...domain.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)
	`

	from := make([]string, len(expected))
	for i, s := range expected {
		from[i] = string(s)
	}

	affected, err := execAffected(ctx, r.q, query, to, id, pq.Array(from))
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrStaleState
}

func scanBooking(s scanner) (*domain.Booking, error) {
	var booking domain.Booking
	err := s.Scan(
		&booking.ID,
		&booking.RideID,
		&booking.PassengerID,
		&booking.Seats,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
