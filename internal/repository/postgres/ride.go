package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `id, driver_id, from_location, to_location, departure_date, departure_time, total_seats, available_seats, price_per_seat, instant_booking, vehicle_make, vehicle_model, vehicle_color, status, route_geometry, route_distance_km, route_duration_min, route_waypoints, created_at`

// Create persists a new ride posting.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	var geometry sql.NullString
	var distance, duration sql.NullFloat64
	var waypoints []string
	if ride.Route != nil {
		geometry = sql.NullString{String: ride.Route.Geometry, Valid: true}
		distance = sql.NullFloat64{Float64: ride.Route.DistanceKm, Valid: true}
		duration = sql.NullFloat64{Float64: ride.Route.DurationMin, Valid: true}
		waypoints = ride.Route.Waypoints
	}

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.DriverID,
		ride.FromLocation,
		ride.ToLocation,
		ride.DepartureDate,
		ride.DepartureTime,
		ride.TotalSeats,
		ride.AvailableSeats,
		ride.PricePerSeat,
		ride.InstantBooking,
		ride.Vehicle.Make,
		ride.Vehicle.Model,
		ride.Vehicle.Color,
		ride.Status,
		geometry,
		distance,
		duration,
		pq.Array(waypoints),
		ride.CreatedAt,
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// Search returns active rides matching the query. From and To match as
// case-insensitive substrings; the date predicate is >= or = depending
// on the query's DateMatch mode.
func (r *RideRepository) Search(ctx context.Context, q domain.SearchQuery) ([]*domain.Ride, error) {
	var (
		where = []string{"status = $1", "available_seats >= $2"}
		args  = []any{domain.RideStatusActive, q.MinSeats}
	)

	if q.From != "" {
		args = append(args, "%"+q.From+"%")
		where = append(where, fmt.Sprintf("from_location ILIKE $%d", len(args)))
	}
	if q.To != "" {
		args = append(args, "%"+q.To+"%")
		where = append(where, fmt.Sprintf("to_location ILIKE $%d", len(args)))
	}
	if q.Date != nil {
		args = append(args, *q.Date)
		op := ">="
		if q.DateMatch == domain.DateMatchExact {
			op = "="
		}
		where = append(where, fmt.Sprintf("departure_date %s $%d", op, len(args)))
	}
	if q.InstantOnly {
		where = append(where, "instant_booking = TRUE")
	}

	var orderBy string
	switch q.Sort {
	case domain.SortByPrice:
		orderBy = "price_per_seat ASC, departure_date ASC"
	case domain.SortByDeparture:
		orderBy = "departure_date ASC, departure_time ASC"
	default:
		orderBy = "departure_date ASC, created_at DESC"
	}

	query := `SELECT ` + rideColumns + ` FROM rides WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY ` + orderBy

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// FindDuplicate returns the ID of an active ride by the same driver with
// the same normalized route, date, and time, or ErrNotFound.
func (r *RideRepository) FindDuplicate(ctx context.Context, driverID, from, to string, date time.Time, departureTime string) (string, error) {
	query := `
		SELECT id FROM rides
		WHERE driver_id = $1
		  AND LOWER(from_location) = LOWER($2)
		  AND LOWER(to_location) = LOWER($3)
		  AND departure_date = $4
		  AND departure_time = $5
		  AND status = $6
		LIMIT 1
	`

	var id string
	err := r.q.QueryRowContext(ctx, query, driverID, from, to, date, departureTime, domain.RideStatusActive).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// ReserveSeats atomically decrements available seats. The guard on the
// current count makes concurrent reservations serialize in the storage
// engine: when one seat remains, at most one caller wins.
func (r *RideRepository) ReserveSeats(ctx context.Context, rideID string, seats int) error {
	query := `
		UPDATE rides
		SET available_seats = available_seats - $1
		WHERE id = $2 AND status = $3 AND available_seats >= $1
	`

	affected, err := execAffected(ctx, r.q, query, seats, rideID, domain.RideStatusActive)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Distinguish a missing/withdrawn ride from a full one.
	var available int
	err = r.q.QueryRowContext(ctx,
		`SELECT available_seats FROM rides WHERE id = $1 AND status = $2`,
		rideID, domain.RideStatusActive,
	).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}
	return repository.ErrInsufficientSeats
}

// RestoreSeats atomically increments available seats, capped at the
// ride's total capacity so a double restore can never overshoot.
func (r *RideRepository) RestoreSeats(ctx context.Context, rideID string, seats int) error {
	query := `
		UPDATE rides
		SET available_seats = LEAST(available_seats + $1, total_seats)
		WHERE id = $2
	`

	affected, err := execAffected(ctx, r.q, query, seats, rideID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Update persists mutable ride fields. Seat counts are deliberately
// excluded: only ReserveSeats and RestoreSeats change them.
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET from_location = $1, to_location = $2, departure_date = $3, departure_time = $4,
		    price_per_seat = $5, instant_booking = $6, vehicle_make = $7, vehicle_model = $8,
		    vehicle_color = $9, status = $10
		WHERE id = $11
	`

	affected, err := execAffected(ctx, r.q, query,
		ride.FromLocation,
		ride.ToLocation,
		ride.DepartureDate,
		ride.DepartureTime,
		ride.PricePerSeat,
		ride.InstantBooking,
		ride.Vehicle.Make,
		ride.Vehicle.Model,
		ride.Vehicle.Color,
		ride.Status,
		ride.ID,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRide(s scanner) (*domain.Ride, error) {
	var ride domain.Ride
	var geometry sql.NullString
	var distance, duration sql.NullFloat64
	var waypoints pq.StringArray

	err := s.Scan(
		&ride.ID,
		&ride.DriverID,
		&ride.FromLocation,
		&ride.ToLocation,
		&ride.DepartureDate,
		&ride.DepartureTime,
		&ride.TotalSeats,
		&ride.AvailableSeats,
		&ride.PricePerSeat,
		&ride.InstantBooking,
		&ride.Vehicle.Make,
		&ride.Vehicle.Model,
		&ride.Vehicle.Color,
		&ride.Status,
		&geometry,
		&distance,
		&duration,
		&waypoints,
		&ride.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if geometry.Valid {
		ride.Route = &domain.RouteInfo{
			Geometry:    geometry.String,
			DistanceKm:  distance.Float64,
			DurationMin: duration.Float64,
			Waypoints:   waypoints,
		}
	}

	return &ride, nil
}
