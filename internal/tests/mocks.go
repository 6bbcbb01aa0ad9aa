package tests

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"carpool/internal/domain"
	"carpool/internal/redis"
	"carpool/internal/repository"
	"carpool/internal/service"
)

// Ensure mocks implement the interfaces they stand in for.
var (
	_ repository.RideRepository    = (*MockRideRepository)(nil)
	_ repository.BookingRepository = (*MockBookingRepository)(nil)
	_ repository.UnitOfWork        = (*MockUnitOfWork)(nil)
	_ redis.LockStoreInterface     = (*MockLockStore)(nil)
	_ service.Sender               = (*RecordingSender)(nil)
	_ service.RouteClient          = (*MockRouteClient)(nil)
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. Seat
// operations replicate the storage engine's conditional semantics under
// a mutex so concurrency tests exercise the same contract.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount  int32
	ReserveCallCount int32
	RestoreCallCount int32

	// Error injection
	CreateError  error
	SearchError  error
	ReserveError error
	RestoreError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) Search(ctx context.Context, q domain.SearchQuery) ([]*domain.Ride, error) {
	if m.SearchError != nil {
		return nil, m.SearchError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Ride
	for _, r := range m.rides {
		if r.Status != domain.RideStatusActive {
			continue
		}
		if r.AvailableSeats < q.MinSeats {
			continue
		}
		if q.From != "" && !containsFold(r.FromLocation, q.From) {
			continue
		}
		if q.To != "" && !containsFold(r.ToLocation, q.To) {
			continue
		}
		if q.Date != nil {
			if q.DateMatch == domain.DateMatchExact {
				if !r.DepartureDate.Equal(*q.Date) {
					continue
				}
			} else if r.DepartureDate.Before(*q.Date) {
				continue
			}
		}
		if q.InstantOnly && !r.InstantBooking {
			continue
		}
		copy := *r
		result = append(result, &copy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		switch q.Sort {
		case domain.SortByPrice:
			if a.PricePerSeat != b.PricePerSeat {
				return a.PricePerSeat < b.PricePerSeat
			}
			return a.DepartureDate.Before(b.DepartureDate)
		case domain.SortByDeparture:
			if !a.DepartureDate.Equal(b.DepartureDate) {
				return a.DepartureDate.Before(b.DepartureDate)
			}
			return a.DepartureTime < b.DepartureTime
		default:
			return a.DepartureDate.Before(b.DepartureDate)
		}
	})

	return result, nil
}

func (m *MockRideRepository) FindDuplicate(ctx context.Context, driverID, from, to string, date time.Time, departureTime string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rides {
		if r.Status != domain.RideStatusActive {
			continue
		}
		if r.DriverID == driverID &&
			strings.EqualFold(r.FromLocation, from) &&
			strings.EqualFold(r.ToLocation, to) &&
			r.DepartureDate.Equal(date) &&
			r.DepartureTime == departureTime {
			return r.ID, nil
		}
	}
	return "", repository.ErrNotFound
}

// ReserveSeats mirrors the atomic conditional decrement: the check and
// the write happen under one lock acquisition.
func (m *MockRideRepository) ReserveSeats(ctx context.Context, rideID string, seats int) error {
	atomic.AddInt32(&m.ReserveCallCount, 1)
	if m.ReserveError != nil {
		return m.ReserveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok || ride.Status != domain.RideStatusActive {
		return repository.ErrNotFound
	}
	if ride.AvailableSeats < seats {
		return repository.ErrInsufficientSeats
	}
	ride.AvailableSeats -= seats
	return nil
}

// RestoreSeats mirrors the capped atomic increment.
func (m *MockRideRepository) RestoreSeats(ctx context.Context, rideID string, seats int) error {
	atomic.AddInt32(&m.RestoreCallCount, 1)
	if m.RestoreError != nil {
		return m.RestoreError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	ride.AvailableSeats += seats
	if ride.AvailableSeats > ride.TotalSeats {
		ride.AvailableSeats = ride.TotalSeats
	}
	return nil
}

func (m *MockRideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rides[ride.ID]
	if !ok {
		return repository.ErrNotFound
	}
	// Seat counts are ledger-owned and never written here.
	seats := existing.AvailableSeats
	copy := *ride
	copy.AvailableSeats = seats
	m.rides[ride.ID] = &copy
	return nil
}

// GetRide returns the stored ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

func (m *MockRideRepository) snapshot() map[string]domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]domain.Ride, len(m.rides))
	for id, r := range m.rides {
		snap[id] = *r
	}
	return snap
}

func (m *MockRideRepository) restoreSnapshot(snap map[string]domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides = make(map[string]*domain.Ride, len(snap))
	for id := range snap {
		r := snap[id]
		m.rides[id] = &r
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
// UpdateStatus replicates the compare-and-swap contract.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.RideID == rideID {
			copy := *b
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockBookingRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.PassengerID == passengerID {
			copy := *b
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, to domain.BookingStatus, expected ...domain.BookingStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, s := range expected {
		if booking.Status == s {
			booking.Status = to
			booking.UpdatedAt = time.Now()
			return nil
		}
	}
	return repository.ErrStaleState
}

// GetBooking returns the stored booking for test assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

func (m *MockBookingRepository) snapshot() map[string]domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]domain.Booking, len(m.bookings))
	for id, b := range m.bookings {
		snap[id] = *b
	}
	return snap
}

func (m *MockBookingRepository) restoreSnapshot(snap map[string]domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = make(map[string]*domain.Booking, len(snap))
	for id := range snap {
		b := snap[id]
		m.bookings[id] = &b
	}
}

// ──────────────────────────────────────────────
// MOCK UNIT OF WORK
// ──────────────────────────────────────────────

// MockUnitOfWork runs fn against the shared mocks and rolls their data
// back when fn fails, mirroring a transaction abort. Units run one at
// a time so a rollback cannot clobber a concurrent writer. Call
// counters are deliberately left standing so tests can assert how
// often a write was attempted.
type MockUnitOfWork struct {
	mu       sync.Mutex
	Rides    *MockRideRepository
	Bookings *MockBookingRepository
}

// NewMockUnitOfWork creates a new MockUnitOfWork over the given mocks.
func NewMockUnitOfWork(rides *MockRideRepository, bookings *MockBookingRepository) *MockUnitOfWork {
	return &MockUnitOfWork{Rides: rides, Bookings: bookings}
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(rides repository.RideRepository, bookings repository.BookingRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rideSnap := m.Rides.snapshot()
	bookingSnap := m.Bookings.snapshot()

	if err := fn(m.Rides, m.Bookings); err != nil {
		m.Rides.restoreSnapshot(rideSnap)
		m.Bookings.restoreSnapshot(bookingSnap)
		return err
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory implementation of the publish lock.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquirePublishLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[driverID] {
		return false, nil
	}
	m.locks[driverID] = true
	return true, nil
}

func (m *MockLockStore) ReleasePublishLock(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, driverID)
	return nil
}

// ──────────────────────────────────────────────
// RECORDING NOTIFICATION SENDER
// ──────────────────────────────────────────────

// RecordingSender captures notifications handed to a Dispatcher.
type RecordingSender struct {
	mu   sync.Mutex
	sent []service.Notification

	// Error injection
	SendError error
}

// NewRecordingSender creates a new RecordingSender.
func NewRecordingSender() *RecordingSender {
	return &RecordingSender{}
}

func (r *RecordingSender) Send(ctx context.Context, n service.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.SendError
}

// Sent returns a snapshot of delivered notifications.
func (r *RecordingSender) Sent() []service.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]service.Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// ──────────────────────────────────────────────
// MOCK ROUTE CLIENT
// ──────────────────────────────────────────────

// MockRouteClient returns a canned route or an injected error.
type MockRouteClient struct {
	RouteResult *domain.RouteInfo
	RouteError  error

	CallCount int32
}

func (m *MockRouteClient) Route(ctx context.Context, from, to string) (*domain.RouteInfo, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if m.RouteError != nil {
		return nil, m.RouteError
	}
	if m.RouteResult != nil {
		return m.RouteResult, nil
	}
	return &domain.RouteInfo{Geometry: "mock", DistanceKm: 10, DurationMin: 15}, nil
}
