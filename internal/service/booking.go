package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

// BookingService governs the booking lifecycle. All seat movement goes
// through the SeatLedger; all status changes are compare-and-swap
// updates so racing transitions on the same booking resolve to exactly
// one winner. A status change and its seat movement run in the same
// unit of work, so neither can land without the other.
type BookingService struct {
	bookingRepo repository.BookingRepository
	rideRepo    repository.RideRepository
	uow         repository.UnitOfWork
	ledger      *SeatLedger
	dispatcher  *Dispatcher
	cache       redis.CacheStoreInterface
}

// NewBookingService creates a new BookingService. cache may be nil.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	rideRepo repository.RideRepository,
	uow repository.UnitOfWork,
	ledger *SeatLedger,
	dispatcher *Dispatcher,
	cache redis.CacheStoreInterface,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		rideRepo:    rideRepo,
		uow:         uow,
		ledger:      ledger,
		dispatcher:  dispatcher,
		cache:       cache,
	}
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	RideID      string
	PassengerID string
	Seats       int
}

// CreateBooking reserves seats and records the booking. Seats are held
// at creation time in both the instant and approval paths: a pending
// request holds its seats while the driver decides. The total price is
// snapshotted from the ride's current per-seat price and never
// recomputed afterwards.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.PassengerID == "" {
		return nil, ErrInvalidPassengerID
	}
	if req.Seats < 1 {
		return nil, ErrInvalidSeatCount
	}

	ride, err := s.rideSummary(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID == req.PassengerID {
		return nil, ErrOwnRide
	}

	status := domain.BookingStatusPending
	if ride.InstantBooking {
		status = domain.BookingStatusConfirmed
	}

	now := time.Now()
	booking := &domain.Booking{
		ID:          uuid.New().String(),
		RideID:      req.RideID,
		PassengerID: req.PassengerID,
		Seats:       req.Seats,
		TotalPrice:  float64(req.Seats) * ride.PricePerSeat,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Reserve and insert commit together: the conditional decrement is
	// the only admission check that holds under concurrency, and a
	// failed insert rolls the hold back instead of stranding seats.
	err = s.uow.Do(ctx, func(rides repository.RideRepository, bookings repository.BookingRepository) error {
		if err := s.ledger.ReserveIn(ctx, rides, req.RideID, req.Seats); err != nil {
			return err
		}
		return bookings.Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		if booking.Status == domain.BookingStatusConfirmed {
			s.dispatcher.NotifyBookingConfirmed(booking, ride)
		} else {
			s.dispatcher.NotifyBookingRequested(booking, ride)
		}
	}

	return booking, nil
}

// Accept confirms a pending booking. Only the ride's driver may accept.
// Accepting an already-confirmed booking is an idempotent no-op so a
// retried request cannot fail or double-notify.
func (s *BookingService) Accept(ctx context.Context, bookingID, driverID string) (*domain.Booking, error) {
	booking, ride, err := s.loadForDriver(ctx, bookingID, driverID)
	if err != nil {
		return nil, err
	}

	if booking.Status == domain.BookingStatusConfirmed {
		return booking, nil
	}
	if !booking.Status.CanTransitionTo(domain.BookingStatusConfirmed) {
		return nil, ErrInvalidTransition
	}

	err = s.bookingRepo.UpdateStatus(ctx, bookingID, domain.BookingStatusConfirmed, domain.BookingStatusPending)
	if err != nil {
		return s.resolveRace(ctx, bookingID, domain.BookingStatusConfirmed, err)
	}

	booking.Status = domain.BookingStatusConfirmed
	// Seats were already reserved at creation: no ledger call here.

	if s.dispatcher != nil {
		s.dispatcher.NotifyBookingConfirmed(booking, ride)
	}
	return booking, nil
}

// Reject declines a pending booking and releases the held seats. Only
// the ride's driver may reject. The compare-and-swap and the restore
// commit together, so seats come back exactly once: a retried or
// racing reject cannot release them twice, and a failed restore leaves
// the booking pending for the caller to retry.
func (s *BookingService) Reject(ctx context.Context, bookingID, driverID string) (*domain.Booking, error) {
	booking, ride, err := s.loadForDriver(ctx, bookingID, driverID)
	if err != nil {
		return nil, err
	}

	if booking.Status == domain.BookingStatusRejected {
		return booking, nil
	}
	if !booking.Status.CanTransitionTo(domain.BookingStatusRejected) {
		return nil, ErrInvalidTransition
	}

	err = s.uow.Do(ctx, func(rides repository.RideRepository, bookings repository.BookingRepository) error {
		if err := bookings.UpdateStatus(ctx, bookingID, domain.BookingStatusRejected, domain.BookingStatusPending); err != nil {
			return err
		}
		return s.ledger.RestoreIn(ctx, rides, booking.RideID, booking.Seats)
	})
	if err != nil {
		return s.resolveRace(ctx, bookingID, domain.BookingStatusRejected, err)
	}

	booking.Status = domain.BookingStatusRejected

	if s.dispatcher != nil {
		s.dispatcher.NotifyBookingRejected(booking, ride)
	}
	return booking, nil
}

// Cancel withdraws a booking from either seat-holding state. Only the
// booking's passenger may cancel.
func (s *BookingService) Cancel(ctx context.Context, bookingID, passengerID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if passengerID == "" {
		return nil, ErrInvalidPassengerID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PassengerID != passengerID {
		return nil, ErrNotBookingOwner
	}

	if booking.Status == domain.BookingStatusCancelled {
		return booking, nil
	}
	if !booking.Status.CanTransitionTo(domain.BookingStatusCancelled) {
		return nil, ErrInvalidTransition
	}

	err = s.uow.Do(ctx, func(rides repository.RideRepository, bookings repository.BookingRepository) error {
		if err := bookings.UpdateStatus(ctx, bookingID, domain.BookingStatusCancelled,
			domain.BookingStatusPending, domain.BookingStatusConfirmed); err != nil {
			return err
		}
		return s.ledger.RestoreIn(ctx, rides, booking.RideID, booking.Seats)
	})
	if err != nil {
		return s.resolveRace(ctx, bookingID, domain.BookingStatusCancelled, err)
	}

	booking.Status = domain.BookingStatusCancelled

	if s.dispatcher != nil {
		ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
		if err != nil {
			log.Printf("booking: could not load ride %s for cancel notification: %v", booking.RideID, err)
		} else {
			s.dispatcher.NotifyBookingCancelled(booking, ride)
		}
	}
	return booking, nil
}

// GetBooking retrieves a booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	return s.bookingRepo.GetByID(ctx, bookingID)
}

// ListForRide retrieves bookings for a ride. Only the ride's driver may
// list them.
func (s *BookingService) ListForRide(ctx context.Context, rideID, driverID string) ([]*domain.Booking, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverID {
		return nil, ErrNotRideOwner
	}

	return s.bookingRepo.ListByRide(ctx, rideID)
}

// ListForPassenger retrieves a passenger's bookings.
func (s *BookingService) ListForPassenger(ctx context.Context, passengerID string) ([]*domain.Booking, error) {
	if passengerID == "" {
		return nil, ErrInvalidPassengerID
	}
	return s.bookingRepo.ListByPassenger(ctx, passengerID)
}

// loadForDriver fetches a booking and its ride, verifying the caller
// owns the ride.
func (s *BookingService) loadForDriver(ctx context.Context, bookingID, driverID string) (*domain.Booking, *domain.Ride, error) {
	if bookingID == "" {
		return nil, nil, ErrInvalidBookingID
	}
	if driverID == "" {
		return nil, nil, ErrInvalidDriverID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
	if err != nil {
		return nil, nil, err
	}
	if ride.DriverID != driverID {
		return nil, nil, ErrNotRideOwner
	}

	return booking, ride, nil
}

// rideSummary loads the ride fields the create path needs, preferring
// the cache. The cached seat count is never trusted for admission: the
// ledger's conditional decrement is the only check that matters.
func (s *BookingService) rideSummary(ctx context.Context, rideID string) (*domain.Ride, error) {
	if s.cache != nil {
		cached, err := s.cache.GetRide(ctx, rideID)
		if err != nil {
			log.Printf("booking: ride cache read failed for %s: %v", rideID, err)
		} else if cached != nil {
			return &domain.Ride{
				ID:             cached.ID,
				DriverID:       cached.DriverID,
				FromLocation:   cached.FromLocation,
				ToLocation:     cached.ToLocation,
				Status:         domain.RideStatus(cached.Status),
				AvailableSeats: cached.AvailableSeats,
				PricePerSeat:   cached.PricePerSeat,
				InstantBooking: cached.InstantBooking,
			}, nil
		}
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		err := s.cache.SetRide(ctx, &redis.CachedRide{
			ID:             ride.ID,
			DriverID:       ride.DriverID,
			FromLocation:   ride.FromLocation,
			ToLocation:     ride.ToLocation,
			Status:         string(ride.Status),
			AvailableSeats: ride.AvailableSeats,
			PricePerSeat:   ride.PricePerSeat,
			InstantBooking: ride.InstantBooking,
		})
		if err != nil {
			log.Printf("booking: ride cache write failed for %s: %v", rideID, err)
		}
	}

	return ride, nil
}

// resolveRace handles a lost compare-and-swap. If the row already holds
// the target status another caller got there first and the operation is
// an idempotent success; otherwise the stale-state error stands so the
// caller re-reads before retrying.
func (s *BookingService) resolveRace(ctx context.Context, bookingID string, target domain.BookingStatus, casErr error) (*domain.Booking, error) {
	if !errors.Is(casErr, repository.ErrStaleState) {
		return nil, casErr
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, casErr
	}
	if booking.Status == target {
		return booking, nil
	}
	return nil, casErr
}
