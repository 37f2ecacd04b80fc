package handler

import (
	"net/http"

	"github.com/OskolkovOleg/sklad-monitoring/internal/service"

	"github.com/gin-gonic/gin"
)

type SimulationHandler struct{ svc service.SimulationService }

func NewSimulationHandler(svc service.SimulationService) *SimulationHandler {
	return &SimulationHandler{svc: svc}
}

// Tick applies one round of random stock movements and recomputes.
func (h *SimulationHandler) Tick(c *gin.Context) {
	resp, err := h.svc.Tick(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
