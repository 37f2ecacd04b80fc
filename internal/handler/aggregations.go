package handler

import (
	"net/http"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/OskolkovOleg/sklad-monitoring/internal/service"

	"github.com/gin-gonic/gin"
)

type AggregationsHandler struct{ svc service.AggregationService }

func NewAggregationsHandler(svc service.AggregationService) *AggregationsHandler {
	return &AggregationsHandler{svc: svc}
}

// Recalculate godoc
// @Summary      Пересчитать агрегаты
// @Description  Полный пересчёт агрегатов по всей иерархии. С async=true задача ставится в очередь.
// @Tags         aggregations
// @Produce      json
// @Param        async query bool false "Поставить пересчёт в очередь"
// @Success      200  {object} dto.RecalculateResponse
// @Success      202  {object} dto.RecalculateResponse
// @Failure      503  {object} apierror.APIError
// @Router       /v1/aggregations/recalculate [post]
func (h *AggregationsHandler) Recalculate(c *gin.Context) {
	async := c.Query("async") == "true"
	resp, err := h.svc.Trigger(c.Request.Context(), async)
	if err != nil {
		writeError(c, err)
		return
	}
	if resp.Queued {
		c.JSON(http.StatusAccepted, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      Список агрегатов
// @Description  Фильтрация, сортировка и пагинация по сохранённым агрегатам.
// @Tags         aggregations
// @Produce      json
// @Param        entityType  query string false "warehouse | zone | location | sku"
// @Param        status      query string false "green | yellow | red | gray"
// @Param        search      query string false "Поиск по коду и названию"
// @Param        warehouseId query string false "UUID склада, можно через запятую"
// @Param        sortField   query string false "entityName | fillPercentage | totalQuantity | availableQuantity | deviationFromMin"
// @Param        sortOrder   query string false "asc | desc"
// @Param        page        query int    false "Страница (по умолчанию 1)"
// @Param        pageSize    query int    false "Размер страницы (по умолчанию 100)"
// @Success      200  {object} dto.AggregationPage
// @Failure      400  {object} apierror.APIError
// @Router       /v1/aggregations [get]
func (h *AggregationsHandler) List(c *gin.Context) {
	var q dto.AggregationQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.svc.Query(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *AggregationsHandler) Details(c *gin.Context) {
	t := model.EntityType(c.Param("entityType"))
	if !t.Valid() {
		writeError(c, service.ErrInvalidEntityType)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Details(c.Request.Context(), t, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Bars feeds the drill-down chart: one bar per child of parentId, paged.
func (h *AggregationsHandler) Bars(c *gin.Context) {
	var q dto.BarsQuery
	if !bindQuery(c, &q) {
		return
	}
	bars, err := h.svc.Bars(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bars)
}
