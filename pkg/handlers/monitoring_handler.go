package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bizinsight-api/pkg/services"
)

// MonitoringHandler serves the aggregated request log.
type MonitoringHandler struct {
	Service *services.MonitoringService
}

func NewMonitoringHandler(service *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{
		Service: service,
	}
}

// GetLogs aggregates the request log over ?period=1h|24h|7d (default 24h).
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	hours := services.PeriodHours(c.DefaultQuery("period", "24h"))
	c.JSON(http.StatusOK, h.Service.GetDashboardData(hours))
}
