package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paresh-singh/Vehicle-parking/internal/service"
)

type ParkingSpotHandler struct {
	parkingService *service.ParkingService
}

func NewParkingSpotHandler(ps *service.ParkingService) *ParkingSpotHandler {
	return &ParkingSpotHandler{parkingService: ps}
}

// GET /api/admin/parking-spots/:spot_id
func (h *ParkingSpotHandler) GetParkingSpotByID(c *gin.Context) {
	id, ok := paramID(c, "spot_id", "parking spot")
	if !ok {
		return
	}

	spot, err := h.parkingService.GetSpot(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Could not get parking spot")
		return
	}
	c.JSON(http.StatusOK, spot)
}

// DELETE /api/admin/parking-spots/:spot_id
func (h *ParkingSpotHandler) DeleteParkingSpot(c *gin.Context) {
	id, ok := paramID(c, "spot_id", "parking spot")
	if !ok {
		return
	}

	if err := h.parkingService.DeleteSpot(c.Request.Context(), id); err != nil {
		respondError(c, err, "Could not delete parking spot")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parking spot deleted"})
}
