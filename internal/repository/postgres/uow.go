package postgres

import (
	"context"
	"database/sql"

	"carpool/internal/repository"
)

// UnitOfWork implements repository.UnitOfWork over a database
// transaction, handing fn repositories bound to that transaction.
type UnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

// Do runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (u *UnitOfWork) Do(ctx context.Context, fn func(rides repository.RideRepository, bookings repository.BookingRepository) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(NewRideRepositoryWithTx(tx), NewBookingRepositoryWithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
