package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dealflow/internal/services"
)

type DashboardHandler struct {
	Service *services.DashboardService
}

func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{Service: service}
}

// @Summary      Dashboard statistics
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  services.DashboardStats
// @Router       /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	_, orgID, _ := getIdentity(c)
	stats, err := h.Service.Stats(orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
