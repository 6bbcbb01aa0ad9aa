package domain

import "time"

// RideStatus represents the lifecycle status of a ride posting.
type RideStatus string

const (
	RideStatusActive    RideStatus = "ACTIVE"
	RideStatusWithdrawn RideStatus = "WITHDRAWN"
)

// Vehicle describes the car used for a ride. Display-only.
type Vehicle struct {
	Make  string
	Model string
	Color string
}

// RouteInfo holds optional route enrichment from the routing service.
// The payload is stored as-is and never interpreted by the core.
type RouteInfo struct {
	Geometry    string
	DistanceKm  float64
	DurationMin float64
	Waypoints   []string
}

// Ride represents a driver's published seat offering.
//
// AvailableSeats is owned by the seat ledger: no other component may
// write it, and 0 <= AvailableSeats <= TotalSeats holds at all times.
type Ride struct {
	ID             string
	DriverID       string
	FromLocation   string
	ToLocation     string
	DepartureDate  time.Time // calendar date, midnight UTC
	DepartureTime  string    // local wall-clock time, "15:04"
	TotalSeats     int
	AvailableSeats int
	PricePerSeat   float64
	InstantBooking bool
	Vehicle        Vehicle
	Status         RideStatus
	Route          *RouteInfo
	CreatedAt      time.Time
}

// SortKey selects the ordering of search results.
type SortKey string

const (
	SortByPrice     SortKey = "price"
	SortByDeparture SortKey = "departure"
	SortDefault     SortKey = ""
)

// DateMatchMode selects how the departure-date filter is applied.
type DateMatchMode string

const (
	// DateMatchOnOrAfter returns rides departing on the given date or later.
	DateMatchOnOrAfter DateMatchMode = "on-or-after"
	// DateMatchExact returns only rides departing on the given date.
	DateMatchExact DateMatchMode = "exact"
)

// SearchQuery describes a ride search. From and To are matched as
// case-insensitive substrings ("Delhi" matches "New Delhi Station").
type SearchQuery struct {
	From        string
	To          string
	Date        *time.Time
	DateMatch   DateMatchMode
	MinSeats    int
	InstantOnly bool
	Sort        SortKey
}
