package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paresh-singh/Vehicle-parking/internal/service"
)

type DashboardHandler struct {
	parkingService *service.ParkingService
}

func NewDashboardHandler(ps *service.ParkingService) *DashboardHandler {
	return &DashboardHandler{parkingService: ps}
}

// GET /api/user/dashboard/summary
func (h *DashboardHandler) UserSummary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.parkingService.UserSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Could not load dashboard")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/admin/dashboard/summary
func (h *DashboardHandler) AdminSummary(c *gin.Context) {
	summary, err := h.parkingService.AdminSummary(c.Request.Context())
	if err != nil {
		respondError(c, err, "Could not load dashboard")
		return
	}
	c.JSON(http.StatusOK, summary)
}
