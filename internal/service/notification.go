package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"carpool/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingRequested NotificationType = "BOOKING_REQUESTED"
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationBookingRejected  NotificationType = "BOOKING_REJECTED"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationRideWithdrawn    NotificationType = "RIDE_WITHDRAWN"
)

// Notification represents a notification to be delivered.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// Sender delivers a single notification to its transport (push, SMS,
// email). Implementations may fail; the dispatcher only logs failures.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the process log. Stands in for a
// real push transport.
type LogSender struct{}

func (LogSender) Send(_ context.Context, n Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		n.Type, n.RecipientID, n.Title, n.Message)
	return nil
}

// Dispatcher delivers notifications asynchronously. Enqueueing never
// blocks the caller and delivery failures never propagate: a booking
// must succeed even when its notification cannot be sent.
type Dispatcher struct {
	sender Sender
	queue  chan Notification
	done   chan struct{}
	once   sync.Once
}

// NewDispatcher creates a Dispatcher and starts its delivery worker.
func NewDispatcher(sender Sender, queueSize int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 64
	}
	d := &Dispatcher{
		sender: sender,
		queue:  make(chan Notification, queueSize),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.queue {
		if err := d.sender.Send(context.Background(), n); err != nil {
			log.Printf("notification delivery failed: type=%s recipient=%s: %v",
				n.Type, n.RecipientID, err)
		}
	}
}

// enqueue hands a notification to the worker. When the queue is full
// the notification is dropped and logged rather than blocking.
func (d *Dispatcher) enqueue(n Notification) {
	n.CreatedAt = time.Now()
	select {
	case d.queue <- n:
	default:
		log.Printf("notification queue full, dropping: type=%s recipient=%s", n.Type, n.RecipientID)
	}
}

// Close stops accepting notifications and waits for the worker to
// drain the queue.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
		<-d.done
	})
}

// NotifyBookingRequested tells the driver a new booking awaits approval.
func (d *Dispatcher) NotifyBookingRequested(booking *domain.Booking, ride *domain.Ride) {
	d.enqueue(Notification{
		Type:        NotificationBookingRequested,
		RecipientID: ride.DriverID,
		Title:       "New Booking Request",
		Message:     fmt.Sprintf("A passenger requested %d seat(s) on your %s → %s ride", booking.Seats, ride.FromLocation, ride.ToLocation),
		Data: map[string]interface{}{
			"booking_id": booking.ID,
			"ride_id":    ride.ID,
			"seats":      booking.Seats,
		},
	})
}

// NotifyBookingConfirmed tells the passenger the booking is confirmed.
func (d *Dispatcher) NotifyBookingConfirmed(booking *domain.Booking, ride *domain.Ride) {
	d.enqueue(Notification{
		Type:        NotificationBookingConfirmed,
		RecipientID: booking.PassengerID,
		Title:       "Booking Confirmed",
		Message:     fmt.Sprintf("Your booking for %s → %s is confirmed", ride.FromLocation, ride.ToLocation),
		Data: map[string]interface{}{
			"booking_id":  booking.ID,
			"ride_id":     ride.ID,
			"total_price": booking.TotalPrice,
		},
	})
}

// NotifyBookingRejected tells the passenger the driver declined.
func (d *Dispatcher) NotifyBookingRejected(booking *domain.Booking, ride *domain.Ride) {
	d.enqueue(Notification{
		Type:        NotificationBookingRejected,
		RecipientID: booking.PassengerID,
		Title:       "Booking Declined",
		Message:     fmt.Sprintf("The driver declined your booking for %s → %s", ride.FromLocation, ride.ToLocation),
		Data: map[string]interface{}{
			"booking_id": booking.ID,
			"ride_id":    ride.ID,
		},
	})
}

// NotifyBookingCancelled tells the driver a passenger cancelled.
func (d *Dispatcher) NotifyBookingCancelled(booking *domain.Booking, ride *domain.Ride) {
	d.enqueue(Notification{
		Type:        NotificationBookingCancelled,
		RecipientID: ride.DriverID,
		Title:       "Booking Cancelled",
		Message:     fmt.Sprintf("A passenger cancelled %d seat(s) on your %s → %s ride", booking.Seats, ride.FromLocation, ride.ToLocation),
		Data: map[string]interface{}{
			"booking_id": booking.ID,
			"ride_id":    ride.ID,
			"seats":      booking.Seats,
		},
	})
}

// NotifyRideWithdrawn tells a passenger their ride was withdrawn.
func (d *Dispatcher) NotifyRideWithdrawn(booking *domain.Booking, ride *domain.Ride) {
	d.enqueue(Notification{
		Type:        NotificationRideWithdrawn,
		RecipientID: booking.PassengerID,
		Title:       "Ride Withdrawn",
		Message:     fmt.Sprintf("The driver withdrew the %s → %s ride you booked", ride.FromLocation, ride.ToLocation),
		Data: map[string]interface{}{
			"booking_id": booking.ID,
			"ride_id":    ride.ID,
		},
	})
}
