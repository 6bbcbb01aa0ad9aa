package domain

import "time"

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusRejected  BookingStatus = "REJECTED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusRejected || s == BookingStatusCancelled
}

// transitions is the full set of legal status transitions.
var transitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled},
}

// CanTransitionTo reports whether s -> to is a legal transition.
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Booking represents a passenger's reservation against a ride.
//
// TotalPrice is snapshotted at creation time (seats * price per seat)
// and never recomputed, even if the ride's price is later edited.
type Booking struct {
	ID          string
	RideID      string
	PassengerID string
	Seats       int
	TotalPrice  float64
	Status      BookingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HoldsSeats reports whether the booking currently holds reserved seats.
// Seats are held from creation until a terminal state releases them.
func (b *Booking) HoldsSeats() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}
