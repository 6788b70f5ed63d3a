package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/service"
)

type ParkingLotHandler struct {
	parkingService *service.ParkingService
}

func NewParkingLotHandler(ps *service.ParkingService) *ParkingLotHandler {
	return &ParkingLotHandler{parkingService: ps}
}

// POST /api/admin/parking-lots
func (h *ParkingLotHandler) CreateParkingLot(c *gin.Context) {
	var dto domain.CreateParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.parkingService.CreateLot(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err, "Could not create parking lot")
		return
	}
	c.JSON(http.StatusCreated, lot)
}

// GET /api/admin/parking-lots
func (h *ParkingLotHandler) GetAllParkingLots(c *gin.Context) {
	lots, err := h.parkingService.ListLots(c.Request.Context())
	if err != nil {
		respondError(c, err, "Could not list parking lots")
		return
	}
	c.JSON(http.StatusOK, lots)
}

// GET /api/user/parking-lots
func (h *ParkingLotHandler) GetAvailableParkingLots(c *gin.Context) {
	lots, err := h.parkingService.ListAvailableLots(c.Request.Context())
	if err != nil {
		respondError(c, err, "Could not list parking lots")
		return
	}
	c.JSON(http.StatusOK, lots)
}

// PUT /api/admin/parking-lots/:id
func (h *ParkingLotHandler) UpdateParkingLot(c *gin.Context) {
	id, ok := paramID(c, "id", "parking lot")
	if !ok {
		return
	}

	var dto domain.UpdateParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.parkingService.UpdateLot(c.Request.Context(), id, dto)
	if err != nil {
		respondError(c, err, "Could not update parking lot")
		return
	}
	c.JSON(http.StatusOK, lot)
}

// DELETE /api/admin/parking-lots/:id
func (h *ParkingLotHandler) DeleteParkingLot(c *gin.Context) {
	id, ok := paramID(c, "id", "parking lot")
	if !ok {
		return
	}

	if err := h.parkingService.DeleteLot(c.Request.Context(), id); err != nil {
		respondError(c, err, "Could not delete parking lot")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parking lot deleted"})
}

// GET /api/admin/parking-lots/:id/spots
func (h *ParkingLotHandler) GetSpotsByLotID(c *gin.Context) {
	id, ok := paramID(c, "id", "parking lot")
	if !ok {
		return
	}

	spots, err := h.parkingService.ListSpots(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Could not list parking spots")
		return
	}
	c.JSON(http.StatusOK, spots)
}
