package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"

	"carpool/internal/repository"
	"carpool/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error             string `json:"error"`
	ConflictingRideID string `json:"conflicting_ride_id,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	resp := ErrorResponse{Error: err.Error()}

	// Surface the conflicting ride so clients can disambiguate.
	var dup *service.DuplicatePostingError
	if errors.As(err, &dup) {
		resp.ConflictingRideID = dup.ConflictingRideID
	}

	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		if txn := nrgin.Transaction(c); txn != nil {
			txn.NoticeError(err)
		}
	}
	c.JSON(status, resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	if service.IsDuplicatePosting(err) {
		return http.StatusConflict
	}

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidPassengerID),
		errors.Is(err, service.ErrInvalidSeatCount),
		errors.Is(err, service.ErrInvalidSeatCapacity),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidRoute),
		errors.Is(err, service.ErrInvalidDepartureTime),
		errors.Is(err, service.ErrOwnRide):
		return http.StatusBadRequest

	// Conflict errors - the client's view is stale or lost a race
	case errors.Is(err, repository.ErrInsufficientSeats),
		errors.Is(err, repository.ErrStaleState),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrPublishInProgress):
		return http.StatusConflict

	// Ownership errors
	case errors.Is(err, service.ErrNotRideOwner),
		errors.Is(err, service.ErrNotBookingOwner):
		return http.StatusForbidden

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
