package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

// publishLockTTL bounds how long a driver's publish lock is held.
const publishLockTTL = 5 * time.Second

// CatalogService handles ride posting and search.
type CatalogService struct {
	rideRepo    repository.RideRepository
	bookingRepo repository.BookingRepository
	routes      RouteClient
	locks       redis.LockStoreInterface
	cache       redis.CacheStoreInterface
	dispatcher  *Dispatcher
	dateMatch   domain.DateMatchMode
}

// NewCatalogService creates a new CatalogService. routes and locks may
// be nil, in which case route enrichment and publish locking are
// skipped. dateMatch selects the search date-filter semantics.
func NewCatalogService(
	rideRepo repository.RideRepository,
	bookingRepo repository.BookingRepository,
	routes RouteClient,
	locks redis.LockStoreInterface,
	cache redis.CacheStoreInterface,
	dispatcher *Dispatcher,
	dateMatch domain.DateMatchMode,
) *CatalogService {
	if dateMatch != domain.DateMatchExact {
		dateMatch = domain.DateMatchOnOrAfter
	}
	return &CatalogService{
		rideRepo:    rideRepo,
		bookingRepo: bookingRepo,
		routes:      routes,
		locks:       locks,
		cache:       cache,
		dispatcher:  dispatcher,
		dateMatch:   dateMatch,
	}
}

// PublishRideRequest contains the parameters for publishing a ride.
type PublishRideRequest struct {
	DriverID       string
	FromLocation   string
	ToLocation     string
	DepartureDate  time.Time
	DepartureTime  string
	Seats          int
	PricePerSeat   float64
	InstantBooking bool
	Vehicle        domain.Vehicle
}

// Publish creates a new ride posting. The duplicate guard runs first: a
// driver cannot hold two active postings with the same normalized
// route, date, and time. Route enrichment is best-effort.
func (s *CatalogService) Publish(ctx context.Context, req PublishRideRequest) (*domain.Ride, error) {
	if err := s.validatePublishRequest(req); err != nil {
		return nil, err
	}

	from := strings.TrimSpace(req.FromLocation)
	to := strings.TrimSpace(req.ToLocation)
	date := truncateToDate(req.DepartureDate)

	if s.locks != nil {
		acquired, err := s.locks.AcquirePublishLock(ctx, req.DriverID, publishLockTTL)
		if err != nil {
			log.Printf("catalog: publish lock unavailable for driver %s: %v", req.DriverID, err)
		} else if !acquired {
			return nil, ErrPublishInProgress
		} else {
			defer func() {
				if err := s.locks.ReleasePublishLock(ctx, req.DriverID); err != nil {
					log.Printf("catalog: failed to release publish lock for driver %s: %v", req.DriverID, err)
				}
			}()
		}
	}

	conflictID, err := s.rideRepo.FindDuplicate(ctx, req.DriverID, from, to, date, req.DepartureTime)
	if err == nil {
		return nil, &DuplicatePostingError{ConflictingRideID: conflictID}
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	ride := &domain.Ride{
		ID:             uuid.New().String(),
		DriverID:       req.DriverID,
		FromLocation:   from,
		ToLocation:     to,
		DepartureDate:  date,
		DepartureTime:  req.DepartureTime,
		TotalSeats:     req.Seats,
		AvailableSeats: req.Seats,
		PricePerSeat:   req.PricePerSeat,
		InstantBooking: req.InstantBooking,
		Vehicle:        req.Vehicle,
		Status:         domain.RideStatusActive,
		CreatedAt:      time.Now(),
	}

	// Route enrichment is stored opaquely and never blocks publishing.
	if s.routes != nil {
		route, err := s.routes.Route(ctx, from, to)
		if err != nil {
			log.Printf("catalog: route enrichment failed for %s -> %s: %v", from, to, err)
		} else {
			ride.Route = route
		}
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	return ride, nil
}

// Search returns active rides matching the query. A persistence failure
// surfaces as an error, never as an empty result list.
func (s *CatalogService) Search(ctx context.Context, q domain.SearchQuery) ([]*domain.Ride, error) {
	if q.MinSeats < 1 {
		q.MinSeats = 1
	}
	if q.DateMatch == "" {
		q.DateMatch = s.dateMatch
	}
	if q.Date != nil {
		d := truncateToDate(*q.Date)
		q.Date = &d
	}

	rides, err := s.rideRepo.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return rides, nil
}

// GetRide retrieves a ride by ID.
func (s *CatalogService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	return s.rideRepo.GetByID(ctx, rideID)
}

// UpdateRideRequest contains the editable fields of a ride posting.
// Seat capacity is fixed at publish time; price and schedule edits
// never rewrite the total price of existing bookings.
type UpdateRideRequest struct {
	RideID        string
	DriverID      string
	PricePerSeat  float64
	DepartureTime string
	Vehicle       *domain.Vehicle
}

// UpdateRide edits a ride posting. Only the owning driver may edit.
func (s *CatalogService) UpdateRide(ctx context.Context, req UpdateRideRequest) (*domain.Ride, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != req.DriverID {
		return nil, ErrNotRideOwner
	}

	if req.PricePerSeat > 0 {
		ride.PricePerSeat = req.PricePerSeat
	}
	if req.DepartureTime != "" {
		if !validDepartureTime(req.DepartureTime) {
			return nil, ErrInvalidDepartureTime
		}
		ride.DepartureTime = req.DepartureTime
	}
	if req.Vehicle != nil {
		ride.Vehicle = *req.Vehicle
	}

	if err := s.rideRepo.Update(ctx, ride); err != nil {
		return nil, err
	}
	s.invalidate(ctx, ride.ID)
	return ride, nil
}

// Withdraw soft-deletes a ride posting: it drops out of search and the
// ledger refuses further reservations. Passengers holding seats are
// notified best-effort.
func (s *CatalogService) Withdraw(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
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
	if ride.Status == domain.RideStatusWithdrawn {
		return ride, nil
	}

	ride.Status = domain.RideStatusWithdrawn
	if err := s.rideRepo.Update(ctx, ride); err != nil {
		return nil, err
	}
	s.invalidate(ctx, ride.ID)

	if s.dispatcher != nil && s.bookingRepo != nil {
		bookings, err := s.bookingRepo.ListByRide(ctx, rideID)
		if err != nil {
			log.Printf("catalog: could not list bookings for withdrawn ride %s: %v", rideID, err)
		} else {
			for _, b := range bookings {
				if b.HoldsSeats() {
					s.dispatcher.NotifyRideWithdrawn(b, ride)
				}
			}
		}
	}

	return ride, nil
}

func (s *CatalogService) invalidate(ctx context.Context, rideID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRide(ctx, rideID); err != nil {
		log.Printf("catalog: failed to invalidate ride cache %s: %v", rideID, err)
	}
}

func (s *CatalogService) validatePublishRequest(req PublishRideRequest) error {
	if req.DriverID == "" {
		return ErrInvalidDriverID
	}
	if strings.TrimSpace(req.FromLocation) == "" || strings.TrimSpace(req.ToLocation) == "" {
		return ErrInvalidRoute
	}
	if req.Seats < 1 {
		return ErrInvalidSeatCapacity
	}
	if req.PricePerSeat <= 0 {
		return ErrInvalidPrice
	}
	if !validDepartureTime(req.DepartureTime) {
		return ErrInvalidDepartureTime
	}
	return nil
}

func validDepartureTime(v string) bool {
	_, err := time.Parse("15:04", v)
	return err == nil
}

// truncateToDate drops the time-of-day component so date comparisons in
// the catalog are pure calendar-date comparisons.
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
