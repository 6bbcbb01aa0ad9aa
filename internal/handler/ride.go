package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// dateLayout is the wire format for calendar dates.
const dateLayout = "2006-01-02"

// RideHandler handles HTTP requests for ride postings.
type RideHandler struct {
	catalog *service.CatalogService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(catalog *service.CatalogService) *RideHandler {
	return &RideHandler{catalog: catalog}
}

// PublishRideRequest is the HTTP request body for publishing a ride.
type PublishRideRequest struct {
	DriverID       string  `json:"driver_id"`
	FromLocation   string  `json:"from_location"`
	ToLocation     string  `json:"to_location"`
	DepartureDate  string  `json:"departure_date"` // YYYY-MM-DD
	DepartureTime  string  `json:"departure_time"` // HH:MM
	Seats          int     `json:"seats"`
	PricePerSeat   float64 `json:"price_per_seat"`
	InstantBooking bool    `json:"instant_booking"`
	VehicleMake    string  `json:"vehicle_make,omitempty"`
	VehicleModel   string  `json:"vehicle_model,omitempty"`
	VehicleColor   string  `json:"vehicle_color,omitempty"`
}

// UpdateRideRequest is the HTTP request body for editing a ride.
type UpdateRideRequest struct {
	DriverID      string  `json:"driver_id"`
	PricePerSeat  float64 `json:"price_per_seat,omitempty"`
	DepartureTime string  `json:"departure_time,omitempty"`
	VehicleMake   string  `json:"vehicle_make,omitempty"`
	VehicleModel  string  `json:"vehicle_model,omitempty"`
	VehicleColor  string  `json:"vehicle_color,omitempty"`
}

// WithdrawRideRequest is the HTTP request body for withdrawing a ride.
type WithdrawRideRequest struct {
	DriverID string `json:"driver_id"`
}

// RouteResponse is the route enrichment section of a ride response.
type RouteResponse struct {
	Geometry    string   `json:"geometry"`
	DistanceKm  float64  `json:"distance_km"`
	DurationMin float64  `json:"duration_min"`
	Waypoints   []string `json:"waypoints,omitempty"`
}

// RideResponse is the HTTP response for ride data.
type RideResponse struct {
	ID             string         `json:"id"`
	DriverID       string         `json:"driver_id"`
	FromLocation   string         `json:"from_location"`
	ToLocation     string         `json:"to_location"`
	DepartureDate  string         `json:"departure_date"`
	DepartureTime  string         `json:"departure_time"`
	TotalSeats     int            `json:"total_seats"`
	AvailableSeats int            `json:"available_seats"`
	PricePerSeat   float64        `json:"price_per_seat"`
	InstantBooking bool           `json:"instant_booking"`
	VehicleMake    string         `json:"vehicle_make,omitempty"`
	VehicleModel   string         `json:"vehicle_model,omitempty"`
	VehicleColor   string         `json:"vehicle_color,omitempty"`
	Status         string         `json:"status"`
	Route          *RouteResponse `json:"route,omitempty"`
}

func toRideResponse(ride *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:             ride.ID,
		DriverID:       ride.DriverID,
		FromLocation:   ride.FromLocation,
		ToLocation:     ride.ToLocation,
		DepartureDate:  ride.DepartureDate.Format(dateLayout),
		DepartureTime:  ride.DepartureTime,
		TotalSeats:     ride.TotalSeats,
		AvailableSeats: ride.AvailableSeats,
		PricePerSeat:   ride.PricePerSeat,
		InstantBooking: ride.InstantBooking,
		VehicleMake:    ride.Vehicle.Make,
		VehicleModel:   ride.Vehicle.Model,
		VehicleColor:   ride.Vehicle.Color,
		Status:         string(ride.Status),
	}
	if ride.Route != nil {
		resp.Route = &RouteResponse{
			Geometry:    ride.Route.Geometry,
			DistanceKm:  ride.Route.DistanceKm,
			DurationMin: ride.Route.DurationMin,
			Waypoints:   ride.Route.Waypoints,
		}
	}
	return resp
}

// Publish handles POST /v1/rides
func (h *RideHandler) Publish(c *gin.Context) {
	var req PublishRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	date, err := time.Parse(dateLayout, req.DepartureDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "departure_date must be YYYY-MM-DD"})
		return
	}

	ride, err := h.catalog.Publish(c.Request.Context(), service.PublishRideRequest{
		DriverID:       req.DriverID,
		FromLocation:   req.FromLocation,
		ToLocation:     req.ToLocation,
		DepartureDate:  date,
		DepartureTime:  req.DepartureTime,
		Seats:          req.Seats,
		PricePerSeat:   req.PricePerSeat,
		InstantBooking: req.InstantBooking,
		Vehicle: domain.Vehicle{
			Make:  req.VehicleMake,
			Model: req.VehicleModel,
			Color: req.VehicleColor,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// Search handles GET /v1/rides
func (h *RideHandler) Search(c *gin.Context) {
	q := domain.SearchQuery{
		From:        c.Query("from"),
		To:          c.Query("to"),
		InstantOnly: c.Query("instant_only") == "true",
		Sort:        domain.SortKey(c.Query("sort")),
	}

	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "date must be YYYY-MM-DD"})
			return
		}
		q.Date = &date
	}
	if raw := c.Query("date_match"); raw != "" {
		q.DateMatch = domain.DateMatchMode(raw)
	}
	if raw := c.Query("min_seats"); raw != "" {
		seats, err := strconv.Atoi(raw)
		if err != nil || seats < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "min_seats must be a positive integer"})
			return
		}
		q.MinSeats = seats
	}

	rides, err := h.catalog.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		response = append(response, toRideResponse(r))
	}
	c.JSON(http.StatusOK, response)
}

// Get handles GET /v1/rides/:id
func (h *RideHandler) Get(c *gin.Context) {
	ride, err := h.catalog.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// Update handles PATCH /v1/rides/:id
func (h *RideHandler) Update(c *gin.Context) {
	var req UpdateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	update := service.UpdateRideRequest{
		RideID:        c.Param("id"),
		DriverID:      req.DriverID,
		PricePerSeat:  req.PricePerSeat,
		DepartureTime: req.DepartureTime,
	}
	if req.VehicleMake != "" || req.VehicleModel != "" || req.VehicleColor != "" {
		update.Vehicle = &domain.Vehicle{
			Make:  req.VehicleMake,
			Model: req.VehicleModel,
			Color: req.VehicleColor,
		}
	}

	ride, err := h.catalog.UpdateRide(c.Request.Context(), update)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// Withdraw handles POST /v1/rides/:id/withdraw
func (h *RideHandler) Withdraw(c *gin.Context) {
	var req WithdrawRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.catalog.Withdraw(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}
