package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"evrental/internal/repository"
	"evrental/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidVehicleID),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidRenterID),
		errors.Is(err, service.ErrInvalidStationID),
		errors.Is(err, service.ErrInvalidRentalMode),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrHourlyDurationTooLong),
		errors.Is(err, service.ErrInvalidRentalWindow),
		errors.Is(err, service.ErrStartTooSoon),
		errors.Is(err, service.ErrMissingInspection),
		errors.Is(err, service.ErrMissingReturnPhotos),
		errors.Is(err, service.ErrInvalidChargeAmount),
		errors.Is(err, service.ErrMissingTransferReference),
		errors.Is(err, service.ErrMissingCancelReason):
		return http.StatusBadRequest

	// Tampered or malformed gateway callbacks
	case errors.Is(err, service.ErrSignatureMismatch),
		errors.Is(err, service.ErrUnknownTransactionRef),
		errors.Is(err, service.ErrAmountMismatch):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrVehicleConflict),
		errors.Is(err, service.ErrBookingLocked),
		errors.Is(err, service.ErrInvalidStateTransition),
		errors.Is(err, service.ErrContractNotSigned),
		errors.Is(err, repository.ErrStaleStatus):
		return http.StatusConflict

	// Upstream gateway unavailable
	case errors.Is(err, service.ErrGatewayUnavailable):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
