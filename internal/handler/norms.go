package handler

import (
	"net/http"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/service"

	"github.com/gin-gonic/gin"
)

type NormsHandler struct{ svc service.NormService }

func NewNormsHandler(svc service.NormService) *NormsHandler {
	return &NormsHandler{svc: svc}
}

func (h *NormsHandler) List(c *gin.Context) {
	var filter dto.NormFilter
	if !bindQuery(c, &filter) {
		return
	}
	norms, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": norms})
}

// Put godoc
// @Summary      Задать норматив
// @Description  Создаёт или заменяет норматив SKU или ячейки. Требуется min <= target <= max, для ячейки max <= вместимости.
// @Tags         norms
// @Accept       json
// @Produce      json
// @Param        body body dto.PutNormRequest true "Норматив"
// @Success      200  {object} dto.NormResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/norms [put]
func (h *NormsHandler) Put(c *gin.Context) {
	var req dto.PutNormRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Put(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NormsHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
