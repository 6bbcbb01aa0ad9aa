package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"carpool/internal/domain"
	"carpool/internal/service"
)

func newCatalogService(rideRepo *MockRideRepository, dateMatch domain.DateMatchMode) *service.CatalogService {
	return service.NewCatalogService(rideRepo, nil, nil, nil, nil, nil, dateMatch)
}

func publishRequest(driverID string) service.PublishRideRequest {
	return service.PublishRideRequest{
		DriverID:      driverID,
		FromLocation:  "Delhi",
		ToLocation:    "Agra",
		DepartureDate: time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC),
		DepartureTime: "10:00",
		Seats:         3,
		PricePerSeat:  450,
	}
}

// ──────────────────────────────────────────────
// PUBLISHING
// ──────────────────────────────────────────────

func TestCatalog_Publish_Success(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	ride, err := svc.Publish(context.Background(), publishRequest("driver-1"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if ride.ID == "" {
		t.Error("expected generated ride ID")
	}
	if ride.Status != domain.RideStatusActive {
		t.Errorf("expected ACTIVE, got %s", ride.Status)
	}
	if ride.AvailableSeats != ride.TotalSeats {
		t.Errorf("expected full availability at publish, got %d/%d",
			ride.AvailableSeats, ride.TotalSeats)
	}
}

func TestCatalog_Publish_Validation(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	cases := []struct {
		name    string
		mutate  func(*service.PublishRideRequest)
		wantErr error
	}{
		{"missing driver", func(r *service.PublishRideRequest) { r.DriverID = "" }, service.ErrInvalidDriverID},
		{"blank origin", func(r *service.PublishRideRequest) { r.FromLocation = "   " }, service.ErrInvalidRoute},
		{"blank destination", func(r *service.PublishRideRequest) { r.ToLocation = "" }, service.ErrInvalidRoute},
		{"zero seats", func(r *service.PublishRideRequest) { r.Seats = 0 }, service.ErrInvalidSeatCapacity},
		{"negative price", func(r *service.PublishRideRequest) { r.PricePerSeat = -1 }, service.ErrInvalidPrice},
		{"bad time", func(r *service.PublishRideRequest) { r.DepartureTime = "25:99" }, service.ErrInvalidDepartureTime},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := publishRequest("driver-1")
			tc.mutate(&req)
			_, err := svc.Publish(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestCatalog_Publish_DuplicateGuard(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	first, err := svc.Publish(context.Background(), publishRequest("driver-1"))
	if err != nil {
		t.Fatalf("first publish: %v", err)
	}

	// Same route differing only in case and whitespace.
	req := publishRequest("driver-1")
	req.FromLocation = "  DELHI "
	req.ToLocation = "agra"

	_, err = svc.Publish(context.Background(), req)
	var dup *service.DuplicatePostingError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicatePostingError, got: %v", err)
	}
	if dup.ConflictingRideID != first.ID {
		t.Errorf("expected conflicting ride %s, got %s", first.ID, dup.ConflictingRideID)
	}
}

func TestCatalog_Publish_NoDuplicateAcrossDrivers(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	if _, err := svc.Publish(context.Background(), publishRequest("driver-1")); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if _, err := svc.Publish(context.Background(), publishRequest("driver-2")); err != nil {
		t.Fatalf("other driver must be allowed the same route: %v", err)
	}
}

func TestCatalog_Publish_WithdrawnRideNotADuplicate(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	first, err := svc.Publish(context.Background(), publishRequest("driver-1"))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := svc.Withdraw(context.Background(), first.ID, "driver-1"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	if _, err := svc.Publish(context.Background(), publishRequest("driver-1")); err != nil {
		t.Fatalf("reposting after withdrawal must succeed: %v", err)
	}
}

func TestCatalog_Publish_LockHeld(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	locks := NewMockLockStore()
	svc := service.NewCatalogService(rideRepo, nil, nil, locks, nil, nil, domain.DateMatchOnOrAfter)

	// Another publish by the same driver is mid-flight.
	if acquired, _ := locks.AcquirePublishLock(context.Background(), "driver-1", time.Second); !acquired {
		t.Fatal("setup: could not pre-acquire lock")
	}

	_, err := svc.Publish(context.Background(), publishRequest("driver-1"))
	if !errors.Is(err, service.ErrPublishInProgress) {
		t.Fatalf("expected ErrPublishInProgress, got: %v", err)
	}
}

func TestCatalog_Publish_RouteEnrichmentFailureIgnored(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	routes := &MockRouteClient{RouteError: errors.New("routing down")}
	svc := service.NewCatalogService(rideRepo, nil, routes, nil, nil, nil, domain.DateMatchOnOrAfter)

	ride, err := svc.Publish(context.Background(), publishRequest("driver-1"))
	if err != nil {
		t.Fatalf("routing failure must not block publish: %v", err)
	}
	if ride.Route != nil {
		t.Error("expected no route on enrichment failure")
	}
}

func TestCatalog_Publish_RouteEnrichmentAttached(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	routes := &MockRouteClient{RouteResult: &domain.RouteInfo{DistanceKm: 233, DurationMin: 210}}
	svc := service.NewCatalogService(rideRepo, nil, routes, nil, nil, nil, domain.DateMatchOnOrAfter)

	ride, err := svc.Publish(context.Background(), publishRequest("driver-1"))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ride.Route == nil || ride.Route.DistanceKm != 233 {
		t.Errorf("expected enriched route, got %+v", ride.Route)
	}
}

// ──────────────────────────────────────────────
// SEARCH
// ──────────────────────────────────────────────

func seedSearchRides(rideRepo *MockRideRepository) {
	base := time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)

	r1 := activeRide("ride-1", "driver-1", 3, 450, true)
	r1.FromLocation = "New Delhi Station"
	r1.ToLocation = "Agra Cantt"
	r1.DepartureDate = base

	r2 := activeRide("ride-2", "driver-2", 2, 300, false)
	r2.FromLocation = "Delhi"
	r2.ToLocation = "Agra"
	r2.DepartureDate = base.AddDate(0, 0, 1)

	r3 := activeRide("ride-3", "driver-3", 4, 600, true)
	r3.FromLocation = "Delhi"
	r3.ToLocation = "Jaipur"
	r3.DepartureDate = base

	r4 := activeRide("ride-4", "driver-4", 1, 200, true)
	r4.FromLocation = "Delhi"
	r4.ToLocation = "Agra"
	r4.DepartureDate = base
	r4.Status = domain.RideStatusWithdrawn

	for _, r := range []*domain.Ride{r1, r2, r3, r4} {
		rideRepo.AddRide(r)
	}
}

func searchIDs(rides []*domain.Ride) []string {
	ids := make([]string, 0, len(rides))
	for _, r := range rides {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestCatalog_Search_CaseInsensitiveSubstring(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	seedSearchRides(rideRepo)
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	rides, err := svc.Search(context.Background(), domain.SearchQuery{
		From: "delhi",
		To:   "AGRA",
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	// "delhi" matches both "Delhi" and "New Delhi Station"; the
	// withdrawn posting never appears.
	if len(rides) != 2 {
		t.Fatalf("expected 2 rides, got %d: %v", len(rides), searchIDs(rides))
	}
	for _, r := range rides {
		if r.Status != domain.RideStatusActive {
			t.Errorf("withdrawn ride leaked into search: %s", r.ID)
		}
	}
}

func TestCatalog_Search_DateOnOrAfter(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	seedSearchRides(rideRepo)
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	date := time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)
	rides, err := svc.Search(context.Background(), domain.SearchQuery{
		From: "Delhi",
		To:   "Agra",
		Date: &date,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rides) != 2 {
		t.Fatalf("expected 2 rides on or after date, got %v", searchIDs(rides))
	}
}

func TestCatalog_Search_DateExact(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	seedSearchRides(rideRepo)
	svc := newCatalogService(rideRepo, domain.DateMatchExact)

	date := time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)
	rides, err := svc.Search(context.Background(), domain.SearchQuery{
		From: "Delhi",
		To:   "Agra",
		Date: &date,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rides) != 1 || rides[0].ID != "ride-1" {
		t.Fatalf("expected only ride-1, got %v", searchIDs(rides))
	}
}

func TestCatalog_Search_MinSeatsFiltersOnAvailability(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	seedSearchRides(rideRepo)
	// ride-1 has 3 total but only 1 left.
	if err := rideRepo.ReserveSeats(context.Background(), "ride-1", 2); err != nil {
		t.Fatalf("setup reserve: %v", err)
	}
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	rides, err := svc.Search(context.Background(), domain.SearchQuery{
		From:     "Delhi",
		To:       "Agra",
		MinSeats: 2,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rides) != 1 || rides[0].ID != "ride-2" {
		t.Fatalf("expected only ride-2, got %v", searchIDs(rides))
	}
}

func TestCatalog_Search_InstantOnly(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	seedSearchRides(rideRepo)
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	rides, err := svc.Search(context.Background(), domain.SearchQuery{
		From:        "Delhi",
		InstantOnly: true,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, r := range rides {
		if !r.InstantBooking {
			t.Errorf("non-instant ride in instant-only results: %s", r.ID)
		}
	}
}

func TestCatalog_Search_SortByPrice(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	seedSearchRides(rideRepo)
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	rides, err := svc.Search(context.Background(), domain.SearchQuery{
		From: "Delhi",
		Sort: domain.SortByPrice,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for i := 1; i < len(rides); i++ {
		if rides[i-1].PricePerSeat > rides[i].PricePerSeat {
			t.Fatalf("results not sorted by price: %v", searchIDs(rides))
		}
	}
}

func TestCatalog_Search_NoMatches_EmptyNotError(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	seedSearchRides(rideRepo)
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	rides, err := svc.Search(context.Background(), domain.SearchQuery{From: "Mumbai"})
	if err != nil {
		t.Fatalf("no matches must not be an error: %v", err)
	}
	if len(rides) != 0 {
		t.Fatalf("expected empty result, got %v", searchIDs(rides))
	}
}

func TestCatalog_Search_RepositoryFailurePropagates(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	rideRepo.SearchError = errors.New("connection refused")
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	rides, err := svc.Search(context.Background(), domain.SearchQuery{From: "Delhi"})
	if err == nil {
		t.Fatal("expected error from failing repository")
	}
	if rides != nil {
		t.Error("failure must not be conflated with an empty result")
	}
}

// ──────────────────────────────────────────────
// EDIT AND WITHDRAW
// ──────────────────────────────────────────────

func TestCatalog_UpdateRide_OwnerOnly(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	ride, err := svc.Publish(context.Background(), publishRequest("driver-1"))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	_, err = svc.UpdateRide(context.Background(), service.UpdateRideRequest{
		RideID:       ride.ID,
		DriverID:     "driver-2",
		PricePerSeat: 500,
	})
	if !errors.Is(err, service.ErrNotRideOwner) {
		t.Fatalf("expected ErrNotRideOwner, got: %v", err)
	}

	updated, err := svc.UpdateRide(context.Background(), service.UpdateRideRequest{
		RideID:       ride.ID,
		DriverID:     "driver-1",
		PricePerSeat: 500,
	})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.PricePerSeat != 500 {
		t.Errorf("expected updated price 500, got %.2f", updated.PricePerSeat)
	}
}

func TestCatalog_Withdraw_Idempotent(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	svc := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)

	ride, err := svc.Publish(context.Background(), publishRequest("driver-1"))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if _, err := svc.Withdraw(context.Background(), ride.ID, "driver-1"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	again, err := svc.Withdraw(context.Background(), ride.ID, "driver-1")
	if err != nil {
		t.Fatalf("second withdraw should be a no-op, got: %v", err)
	}
	if again.Status != domain.RideStatusWithdrawn {
		t.Errorf("expected WITHDRAWN, got %s", again.Status)
	}
}

func TestCatalog_Withdraw_BlocksNewReservations(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	catalog := newCatalogService(rideRepo, domain.DateMatchOnOrAfter)
	bookings := newBookingService(rideRepo, bookingRepo)

	ride, err := catalog.Publish(context.Background(), publishRequest("driver-1"))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := catalog.Withdraw(context.Background(), ride.ID, "driver-1"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	_, err = bookings.CreateBooking(context.Background(), service.CreateBookingRequest{
		RideID:      ride.ID,
		PassengerID: "passenger-1",
		Seats:       1,
	})
	if err == nil {
		t.Fatal("expected booking on withdrawn ride to fail")
	}
}
