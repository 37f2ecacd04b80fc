package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/OskolkovOleg/sklad-monitoring/internal/apierror"
	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/service"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 20 << 20

type ImportHandler struct {
	inventory service.InventoryService
	norms     service.NormService
}

func NewImportHandler(inventory service.InventoryService, norms service.NormService) *ImportHandler {
	return &ImportHandler{inventory: inventory, norms: norms}
}

// Inventory godoc
// @Summary      Импорт остатков
// @Description  Принимает JSON со строками или multipart-файл CSV (поле file). Ошибочные строки пропускаются и попадают в отчёт.
// @Tags         import
// @Accept       json
// @Accept       mpfd
// @Produce      json
// @Param        body body dto.InventoryImportRequest false "Строки остатков"
// @Param        file formData file false "CSV с заголовком"
// @Success      200  {object} dto.ImportResult
// @Failure      400  {object} apierror.APIError
// @Router       /v1/import/inventory [post]
func (h *ImportHandler) Inventory(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.inventoryCSV(c)
		return
	}
	var req dto.InventoryImportRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.Import(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ImportHandler) inventoryCSV(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Файл не передан (поле file)"))
		return
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New("Файл слишком большой"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		writeError(c, err)
		return
	}
	resp, err := h.inventory.ImportCSV(c.Request.Context(), fh.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ImportHandler) Norms(c *gin.Context) {
	var req dto.NormImportRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.norms.Import(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ImportHandler) Logs(c *gin.Context) {
	var q dto.ImportLogQuery
	if !bindQuery(c, &q) {
		return
	}
	logs, err := h.inventory.ImportLogs(c.Request.Context(), q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}
