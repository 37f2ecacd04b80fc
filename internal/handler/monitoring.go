package handler

import (
	"net/http"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/service"

	"github.com/gin-gonic/gin"
)

type MonitoringHandler struct{ svc service.MonitoringService }

func NewMonitoringHandler(svc service.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{svc: svc}
}

// KPI godoc
// @Summary      Ключевые показатели
// @Tags         monitoring
// @Produce      json
// @Param        warehouseId query string false "UUID склада"
// @Param        zoneId      query string false "UUID зоны"
// @Success      200  {object} dto.KPIResponse
// @Router       /v1/kpi [get]
func (h *MonitoringHandler) KPI(c *gin.Context) {
	var q dto.KPIQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.KPI(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MonitoringHandler) Alerts(c *gin.Context) {
	var q dto.AlertsQuery
	if !bindQuery(c, &q) {
		return
	}
	alerts, err := h.svc.Alerts(c.Request.Context(), q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alerts})
}
