package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/paresh-singh/Vehicle-parking/internal/logging"
	"github.com/paresh-singh/Vehicle-parking/internal/repository"
	"github.com/paresh-singh/Vehicle-parking/internal/service"
)

// statusFor maps engine and repository errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, service.ErrAlreadyParked),
		errors.Is(err, service.ErrAlreadyVacated),
		errors.Is(err, service.ErrNeverParked),
		errors.Is(err, service.ErrReservationCancelled),
		errors.Is(err, service.ErrInsufficientAvailableSpots),
		errors.Is(err, service.ErrSpotOccupied),
		errors.Is(err, service.ErrLotHasOccupiedSpots):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrTokenRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNoAvailableSpot):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConcurrentModification),
		errors.Is(err, repository.ErrDuplicateEntry),
		errors.Is(err, service.ErrUserAlreadyExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Internal errors are logged
// and answered with the generic message only.
func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Errorf(c.Request.Context(), "%s: %v", message, err)
		c.JSON(status, gin.H{"error": message})
		return
	}
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

func paramID(c *gin.Context, name, what string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID"})
		return 0, false
	}
	return id, true
}
