package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/guregu/null.v4"

	"github.com/paresh-singh/Vehicle-parking/internal/api/middleware"
	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/service"
)

type ReservationHandler struct {
	parkingService *service.ParkingService
}

func NewReservationHandler(ps *service.ParkingService) *ReservationHandler {
	return &ReservationHandler{parkingService: ps}
}

func currentUser(c *gin.Context) (int, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
	}
	return userID, ok
}

// POST /api/user/reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var dto domain.CreateReservationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.parkingService.BookSpot(c.Request.Context(), dto.LotID, userID)
	if err != nil {
		respondError(c, err, "Could not reserve a parking spot")
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /api/user/reservations
func (h *ReservationHandler) GetReservations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.parkingService.ReservationsForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Could not list reservations")
		return
	}
	c.JSON(http.StatusOK, items)
}

// PUT /api/user/reservations/:id/park
func (h *ReservationHandler) ParkVehicle(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "reservation")
	if !ok {
		return
	}

	res, err := h.parkingService.MarkParked(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "Could not mark vehicle as parked")
		return
	}
	c.JSON(http.StatusOK, res)
}

// PUT /api/user/reservations/:id/vacate
func (h *ReservationHandler) VacateSpot(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "reservation")
	if !ok {
		return
	}

	result, err := h.parkingService.MarkVacated(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "Could not vacate parking spot")
		return
	}
	c.JSON(http.StatusOK, result)
}

// PUT /api/user/reservations/:id/cancel
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "reservation")
	if !ok {
		return
	}

	res, err := h.parkingService.CancelReservation(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "Could not cancel reservation")
		return
	}
	c.JSON(http.StatusOK, res)
}

var csvHeader = []string{
	"Reservation ID", "Lot Name", "Spot Number", "Parking Timestamp", "Leaving Timestamp",
	"Duration (Hours)", "Cost", "Address", "PIN Code",
}

// GET /api/user/reservations/export
func (h *ReservationHandler) ExportReservations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.parkingService.ReservationsForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Could not export reservations")
		return
	}
	if len(items) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No reservation history found for this user"})
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(csvHeader)
	for _, item := range items {
		_ = w.Write([]string{
			strconv.Itoa(item.ReservationID),
			orNA(item.LotName),
			strconv.Itoa(item.SpotNumber),
			timeOrNA(item.ParkingTimestamp),
			timeOrNA(item.LeavingTimestamp),
			floatOrNA(item.DurationHours),
			floatOrNA(item.Cost),
			orNA(item.Address),
			orNA(item.PinCode),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		respondError(c, err, "Could not export reservations")
		return
	}

	filename := fmt.Sprintf("%s_parking_history.csv", c.GetString(middleware.UsernameKey))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func orNA(s null.String) string {
	if !s.Valid {
		return "N/A"
	}
	return s.String
}

func timeOrNA(t null.Time) string {
	if !t.Valid {
		return "N/A"
	}
	return t.Time.UTC().Format(time.RFC3339)
}

func floatOrNA(f null.Float) string {
	if !f.Valid {
		return "N/A"
	}
	return strconv.FormatFloat(f.Float64, 'f', 2, 64)
}
