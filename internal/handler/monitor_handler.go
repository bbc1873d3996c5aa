package handler

import (
	"net/http"

	"github.com/arnold-1324/twitterClone-sub000/internal/hub"
	"github.com/gin-gonic/gin"
)

// MonitorHandler exposes hub statistics.
type MonitorHandler interface {
	GetHubStats(c *gin.Context)
}

type monitorHandler struct {
	monitor *hub.MonitorService
}

func NewMonitorHandler(monitor *hub.MonitorService) MonitorHandler {
	return &monitorHandler{monitor: monitor}
}

func (h *monitorHandler) GetHubStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.GetStats(c.Request.Context()))
}
