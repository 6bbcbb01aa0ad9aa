package service

import (
	"context"
	"log"

	"carpool/internal/redis"
	"carpool/internal/repository"
)

// SeatLedger is the sole authority over ride seat availability. Both
// operations delegate to single conditional statements in the storage
// engine, so concurrent calls on the same ride serialize there: two
// passengers racing for the last seat cannot both win.
type SeatLedger struct {
	rideRepo repository.RideRepository
	cache    redis.CacheStoreInterface
}

// NewSeatLedger creates a new SeatLedger.
func NewSeatLedger(rideRepo repository.RideRepository, cache redis.CacheStoreInterface) *SeatLedger {
	return &SeatLedger{
		rideRepo: rideRepo,
		cache:    cache,
	}
}

// Reserve holds seats on a ride. Fails with
// repository.ErrInsufficientSeats when the ride cannot cover the
// request and repository.ErrNotFound when no active ride matches.
func (l *SeatLedger) Reserve(ctx context.Context, rideID string, seats int) error {
	return l.ReserveIn(ctx, l.rideRepo, rideID, seats)
}

// ReserveIn is Reserve through the supplied repository, so a caller can
// bind the reservation to its own transaction.
func (l *SeatLedger) ReserveIn(ctx context.Context, rides repository.RideRepository, rideID string, seats int) error {
	if rideID == "" {
		return ErrInvalidRideID
	}
	if seats < 1 {
		return ErrInvalidSeatCount
	}

	if err := rides.ReserveSeats(ctx, rideID, seats); err != nil {
		return err
	}

	l.invalidate(ctx, rideID)
	return nil
}

// Restore releases previously held seats. The storage layer caps the
// count at the ride's original capacity, so a duplicated restore can
// never push availability past what the driver published.
func (l *SeatLedger) Restore(ctx context.Context, rideID string, seats int) error {
	return l.RestoreIn(ctx, l.rideRepo, rideID, seats)
}

// RestoreIn is Restore through the supplied repository.
func (l *SeatLedger) RestoreIn(ctx context.Context, rides repository.RideRepository, rideID string, seats int) error {
	if rideID == "" {
		return ErrInvalidRideID
	}
	if seats < 1 {
		return ErrInvalidSeatCount
	}

	if err := rides.RestoreSeats(ctx, rideID, seats); err != nil {
		return err
	}

	l.invalidate(ctx, rideID)
	return nil
}

func (l *SeatLedger) invalidate(ctx context.Context, rideID string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.InvalidateRide(ctx, rideID); err != nil {
		log.Printf("seat ledger: failed to invalidate ride cache %s: %v", rideID, err)
	}
}
