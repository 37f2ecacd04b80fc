package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHeader carries the caller's name for the export history.
const UserHeader = "X-User"

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

type renderFunc func(ctx context.Context, q dto.AggregationQuery, exportedBy string) (*service.Report, error)

func (h *ReportsHandler) send(c *gin.Context, render renderFunc) {
	var q dto.AggregationQuery
	if !bindQuery(c, &q) {
		return
	}
	report, err := render(c.Request.Context(), q, c.GetHeader(UserHeader))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename))
	c.Header("X-Record-Count", strconv.Itoa(report.Records))
	c.Data(http.StatusOK, report.ContentType, report.Body)
}

// CSV godoc
// @Summary      Выгрузка агрегатов в CSV
// @Tags         reports
// @Produce      text/csv
// @Param        entityType query string false "warehouse | zone | location | sku"
// @Param        status     query string false "green | yellow | red | gray"
// @Success      200  {file} file
// @Router       /v1/reports/aggregations.csv [get]
func (h *ReportsHandler) CSV(c *gin.Context) { h.send(c, h.svc.CSV) }

func (h *ReportsHandler) PDF(c *gin.Context) { h.send(c, h.svc.PDF) }

func (h *ReportsHandler) History(c *gin.Context) {
	var q dto.ReportHistoryQuery
	if !bindQuery(c, &q) {
		return
	}
	history, err := h.svc.History(c.Request.Context(), q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": history})
}
