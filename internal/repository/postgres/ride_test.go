package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

func newRideRepoMock(t *testing.T) (*RideRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return NewRideRepository(db), mock, func() { db.Close() }
}

func TestRideRepository_ReserveSeats_Success(t *testing.T) {
	repo, mock, done := newRideRepoMock(t)
	defer done()

	mock.ExpectExec(`UPDATE rides\s+SET available_seats = available_seats - \$1\s+WHERE id = \$2 AND status = \$3 AND available_seats >= \$1`).
		WithArgs(2, "ride-1", domain.RideStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ReserveSeats(context.Background(), "ride-1", 2); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRideRepository_ReserveSeats_Insufficient(t *testing.T) {
	repo, mock, done := newRideRepoMock(t)
	defer done()

	mock.ExpectExec(`UPDATE rides`).
		WithArgs(3, "ride-1", domain.RideStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT available_seats FROM rides WHERE id = \$1 AND status = \$2`).
		WithArgs("ride-1", domain.RideStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"available_seats"}).AddRow(1))

	err := repo.ReserveSeats(context.Background(), "ride-1", 3)
	if !errors.Is(err, repository.ErrInsufficientSeats) {
		t.Fatalf("expected ErrInsufficientSeats, got: %v", err)
	}
}

func TestRideRepository_ReserveSeats_RideMissing(t *testing.T) {
	repo, mock, done := newRideRepoMock(t)
	defer done()

	mock.ExpectExec(`UPDATE rides`).
		WithArgs(1, "missing", domain.RideStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT available_seats FROM rides`).
		WithArgs("missing", domain.RideStatusActive).
		WillReturnError(sql.ErrNoRows)

	err := repo.ReserveSeats(context.Background(), "missing", 1)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRideRepository_RestoreSeats_CappedAtCapacity(t *testing.T) {
	repo, mock, done := newRideRepoMock(t)
	defer done()

	// The cap lives in the statement itself.
	mock.ExpectExec(`UPDATE rides\s+SET available_seats = LEAST\(available_seats \+ \$1, total_seats\)\s+WHERE id = \$2`).
		WithArgs(2, "ride-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RestoreSeats(context.Background(), "ride-1", 2); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRideRepository_RestoreSeats_RideMissing(t *testing.T) {
	repo, mock, done := newRideRepoMock(t)
	defer done()

	mock.ExpectExec(`UPDATE rides`).
		WithArgs(1, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RestoreSeats(context.Background(), "missing", 1)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRideRepository_FindDuplicate(t *testing.T) {
	repo, mock, done := newRideRepoMock(t)
	defer done()

	date := time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id FROM rides\s+WHERE driver_id = \$1\s+AND LOWER\(from_location\) = LOWER\(\$2\)`).
		WithArgs("driver-1", "Delhi", "Agra", date, "10:00", domain.RideStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ride-1"))

	id, err := repo.FindDuplicate(context.Background(), "driver-1", "Delhi", "Agra", date, "10:00")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if id != "ride-1" {
		t.Errorf("expected ride-1, got %s", id)
	}
}

func TestRideRepository_FindDuplicate_None(t *testing.T) {
	repo, mock, done := newRideRepoMock(t)
	defer done()

	date := time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id FROM rides`).
		WithArgs("driver-1", "Delhi", "Agra", date, "10:00", domain.RideStatusActive).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindDuplicate(context.Background(), "driver-1", "Delhi", "Agra", date, "10:00")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRideRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, done := newRideRepoMock(t)
	defer done()

	mock.ExpectQuery(`SELECT .+ FROM rides WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRideRepository_Search_BuildsPredicates(t *testing.T) {
	repo, mock, done := newRideRepoMock(t)
	defer done()

	date := time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "driver_id", "from_location", "to_location", "departure_date",
		"departure_time", "total_seats", "available_seats", "price_per_seat",
		"instant_booking", "vehicle_make", "vehicle_model", "vehicle_color",
		"status", "route_geometry", "route_distance_km", "route_duration_min",
		"route_waypoints", "created_at",
	}).AddRow(
		"ride-1", "driver-1", "Delhi", "Agra", date,
		"10:00", 3, 2, 450.0,
		true, "Maruti", "Swift", "White",
		"ACTIVE", nil, nil, nil,
		nil, now,
	)

	mock.ExpectQuery(`FROM rides WHERE status = \$1 AND available_seats >= \$2 AND from_location ILIKE \$3 AND to_location ILIKE \$4 AND departure_date >= \$5`).
		WithArgs(domain.RideStatusActive, 2, "%Delhi%", "%Agra%", date).
		WillReturnRows(rows)

	rides, err := repo.Search(context.Background(), domain.SearchQuery{
		From:     "Delhi",
		To:       "Agra",
		Date:     &date,
		MinSeats: 2,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(rides) != 1 || rides[0].ID != "ride-1" {
		t.Fatalf("unexpected results: %+v", rides)
	}
	if rides[0].Route != nil {
		t.Error("expected no route for NULL geometry")
	}
}

func TestRideRepository_Search_ExactDateUsesEquality(t *testing.T) {
	repo, mock, done := newRideRepoMock(t)
	defer done()

	date := time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`departure_date = \$3`).
		WithArgs(domain.RideStatusActive, 1, date).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Search(context.Background(), domain.SearchQuery{
		Date:      &date,
		DateMatch: domain.DateMatchExact,
		MinSeats:  1,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
