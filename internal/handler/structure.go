package handler

import (
	"net/http"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/OskolkovOleg/sklad-monitoring/internal/service"

	"github.com/gin-gonic/gin"
)

type StructureHandler struct{ svc service.StructureService }

func NewStructureHandler(svc service.StructureService) *StructureHandler {
	return &StructureHandler{svc: svc}
}

// Sync godoc
// @Summary      Синхронизировать структуру складов
// @Description  Upsert складов, зон и ячеек по кодам. Отсутствующие в запросе объекты не удаляются.
// @Tags         structure
// @Accept       json
// @Produce      json
// @Param        body body dto.StructureSyncRequest true "Склады с зонами и ячейками"
// @Success      200  {object} dto.StructureSyncResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/warehouses/sync [post]
func (h *StructureHandler) Sync(c *gin.Context) {
	var req dto.StructureSyncRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Sync(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StructureHandler) List(c *gin.Context) {
	warehouses, err := h.svc.List(c.Request.Context(), c.Query("includeInactive") == "true")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": warehouses})
}

// SetActive returns a handler toggling the active flag of one hierarchy level.
func (h *StructureHandler) SetActive(level model.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req dto.SetActiveRequest
		if !bindAndValidate(c, &req) {
			return
		}
		if err := h.svc.SetActive(c.Request.Context(), level, id, *req.Active); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
