package handlers

import (
	"net/http"

	"fitness_portal_backend/internal/services"
	"fitness_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StatsHandler holds the stats service.
type StatsHandler struct {
	statsService services.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(ss services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: ss}
}

// GetOverview returns member and point totals for the dashboard.
func (h *StatsHandler) GetOverview(c *gin.Context) {
	overview, err := h.statsService.GetOverview()
	if err != nil {
		utils.LogError(err, "GetOverview: Error from statsService.GetOverview")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to load stats overview.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, overview)
}

// GetLiveStats returns the real-time studio snapshot.
func (h *StatsHandler) GetLiveStats(c *gin.Context) {
	live, err := h.statsService.GetLiveStats()
	if err != nil {
		utils.LogError(err, "GetLiveStats: Error from statsService.GetLiveStats")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to load live stats.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, live)
}
