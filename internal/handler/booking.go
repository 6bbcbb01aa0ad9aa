package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookings *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	RideID      string `json:"ride_id"`
	PassengerID string `json:"passenger_id"`
	Seats       int    `json:"seats"`
}

// ActorRequest carries the acting account for a status transition.
type ActorRequest struct {
	DriverID    string `json:"driver_id,omitempty"`
	PassengerID string `json:"passenger_id,omitempty"`
}

// BookingResponse is the HTTP response for booking data.
type BookingResponse struct {
	ID          string  `json:"id"`
	RideID      string  `json:"ride_id"`
	PassengerID string  `json:"passenger_id"`
	Seats       int     `json:"seats"`
	TotalPrice  float64 `json:"total_price"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		RideID:      b.RideID,
		PassengerID: b.PassengerID,
		Seats:       b.Seats,
		TotalPrice:  b.TotalPrice,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   b.UpdatedAt.Format(time.RFC3339),
	}
}

// Create handles POST /v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		RideID:      req.RideID,
		PassengerID: req.PassengerID,
		Seats:       req.Seats,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(booking))
}

// Get handles GET /v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.bookings.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// Accept handles POST /v1/bookings/:id/accept
func (h *BookingHandler) Accept(c *gin.Context) {
	h.transition(c, h.bookings.Accept, func(r ActorRequest) string { return r.DriverID })
}

// Reject handles POST /v1/bookings/:id/reject
func (h *BookingHandler) Reject(c *gin.Context) {
	h.transition(c, h.bookings.Reject, func(r ActorRequest) string { return r.DriverID })
}

// Cancel handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, h.bookings.Cancel, func(r ActorRequest) string { return r.PassengerID })
}

func (h *BookingHandler) transition(
	c *gin.Context,
	op func(ctx context.Context, bookingID, actorID string) (*domain.Booking, error),
	actor func(ActorRequest) string,
) {
	var req ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := op(c.Request.Context(), c.Param("id"), actor(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// ListForRide handles GET /v1/rides/:id/bookings
func (h *BookingHandler) ListForRide(c *gin.Context) {
	bookings, err := h.bookings.ListForRide(c.Request.Context(), c.Param("id"), c.Query("driver_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		response = append(response, toBookingResponse(b))
	}
	c.JSON(http.StatusOK, response)
}

// ListForPassenger handles GET /v1/passengers/:id/bookings
func (h *BookingHandler) ListForPassenger(c *gin.Context) {
	bookings, err := h.bookings.ListForPassenger(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		response = append(response, toBookingResponse(b))
	}
	c.JSON(http.StatusOK, response)
}
