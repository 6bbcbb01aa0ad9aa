package domain

import "time"

// Profile holds display information for an account. Referenced by rides
// and bookings for presentation only.
type Profile struct {
	ID        string
	FullName  string
	Bio       string
	Phone     string
	AvatarURL string
	CreatedAt time.Time
}
