package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/OskolkovOleg/sklad-monitoring/internal/repository"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type InventoryService interface {
	Import(ctx context.Context, req dto.InventoryImportRequest) (*dto.ImportResult, error)
	// ParseCSV reads an inventory CSV with a header row. Rows that cannot be
	// parsed are returned as row errors and left out of the request.
	ParseCSV(filename string, data []byte) (dto.InventoryImportRequest, []model.ImportRowError, error)
	ImportCSV(ctx context.Context, filename string, data []byte) (*dto.ImportResult, error)
	List(ctx context.Context, filter dto.InventoryFilter) (*dto.InventoryListResponse, error)
	ImportLogs(ctx context.Context, limit int) ([]dto.ImportLogResponse, error)
}

type inventoryService struct {
	repo      repository.InventoryRepository
	skus      repository.SKURepository
	structure repository.StructureRepository
	logs      repository.ImportLogRepository
	recalc    Recalculator
	validate  *validator.Validate
}

func NewInventoryService(
	repo repository.InventoryRepository,
	skus repository.SKURepository,
	structure repository.StructureRepository,
	logs repository.ImportLogRepository,
	recalc Recalculator,
) InventoryService {
	return &inventoryService{
		repo:      repo,
		skus:      skus,
		structure: structure,
		logs:      logs,
		recalc:    recalc,
		validate:  validator.New(),
	}
}

// ── Import ───────────────────────────────────────────────────────────────────

func (s *inventoryService) Import(ctx context.Context, req dto.InventoryImportRequest) (*dto.ImportResult, error) {
	return s.importRows(ctx, req, nil, len(req.Rows))
}

func (s *inventoryService) ImportCSV(ctx context.Context, filename string, data []byte) (*dto.ImportResult, error) {
	req, parseErrs, err := s.ParseCSV(filename, data)
	if err != nil {
		return nil, err
	}
	return s.importRows(ctx, req, parseErrs, len(req.Rows)+len(parseErrs))
}

// importRows writes every valid row. rowNumbers of parse errors already
// collected are kept; the remaining rows are numbered in request order,
// skipping numbers taken by parse errors.
func (s *inventoryService) importRows(ctx context.Context, req dto.InventoryImportRequest, rowErrs []model.ImportRowError, total int) (*dto.ImportResult, error) {
	filename := req.Filename
	if filename == "" {
		filename = "inventory.json"
	}
	entry := startImport(ctx, s.logs, filename, model.ImportTypeInventory, total)

	taken := make(map[int]bool, len(rowErrs))
	for _, e := range rowErrs {
		taken[e.Row] = true
	}

	skuCache := make(map[string]*model.SKU)
	success := 0
	rowNum := 0
	for _, row := range req.Rows {
		rowNum++
		for taken[rowNum] {
			rowNum++
		}
		if err := s.importRow(ctx, row, skuCache); err != nil {
			rowErrs = append(rowErrs, model.ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		success++
	}
	sortRowErrors(rowErrs)
	finishImport(ctx, s.logs, entry, success, rowErrs)

	result := &dto.ImportResult{
		Success:     len(rowErrs) == 0,
		TotalRows:   total,
		SuccessRows: success,
		ErrorRows:   len(rowErrs),
		Errors:      firstRowErrors(rowErrs),
	}
	if entry != nil {
		result.ImportID = entry.ID.String()
	}
	if success > 0 {
		result.Recalculated = recalcAfterWrite(ctx, s.recalc, "inventory import")
	}
	return result, nil
}

func (s *inventoryService) importRow(ctx context.Context, row dto.InventoryImportRow, skuCache map[string]*model.SKU) error {
	if err := s.validate.Struct(row); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("поле %s: %s", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}

	code := strings.TrimSpace(row.SKUCode)
	sku, ok := skuCache[code]
	if !ok {
		found, err := s.skus.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("SKU %s не найден", code)
			}
			return err
		}
		sku = found
		skuCache[code] = sku
	}

	loc, err := resolveLocation(ctx, s.structure, row.LocationCode, row.ZoneCode, row.WarehouseCode)
	if err != nil {
		return err
	}

	var batch *string
	if row.BatchNumber != nil && strings.TrimSpace(*row.BatchNumber) != "" {
		batch = ptr(strings.TrimSpace(*row.BatchNumber))
	}

	inv, err := s.repo.FindByKey(ctx, sku.ID, loc.ID, batch)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		inv = &model.Inventory{SKUID: sku.ID, LocationID: loc.ID, BatchNumber: batch}
	}
	inv.Quantity = row.Quantity
	inv.ReservedQty = row.ReservedQty
	inv.UnavailableQty = row.UnavailableQty
	inv.ExpiryDate = row.ExpiryDate
	inv.Status = model.InventoryStatus(row.Status)
	if inv.Status == "" {
		inv.Status = model.InventoryAvailable
	}
	inv.LastUpdated = time.Now().UTC()
	return s.repo.Save(ctx, inv)
}

func sortRowErrors(errs []model.ImportRowError) {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Row < errs[j].Row })
}

// ── CSV ──────────────────────────────────────────────────────────────────────

var utf8BOM = []byte("\xef\xbb\xbf")

var inventoryCSVColumns = []string{
	"sku_code", "location_code", "zone_code", "warehouse_code",
	"quantity", "reserved_qty", "unavailable_qty",
	"batch_number", "expiry_date", "status",
}

func (s *inventoryService) ParseCSV(filename string, data []byte) (dto.InventoryImportRequest, []model.ImportRowError, error) {
	req := dto.InventoryImportRequest{Filename: filename}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return req, nil, fmt.Errorf("%w: csv header: %v", ErrInvalidQuery, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"sku_code", "location_code", "quantity"} {
		if _, ok := col[required]; !ok {
			return req, nil, fmt.Errorf("%w: csv column %s is missing (expected %s)",
				ErrInvalidQuery, required, strings.Join(inventoryCSVColumns, ","))
		}
	}

	var rowErrs []model.ImportRowError
	rowNum := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			rowErrs = append(rowErrs, model.ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		row, err := parseInventoryRecord(rec, col)
		if err != nil {
			rowErrs = append(rowErrs, model.ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		req.Rows = append(req.Rows, row)
	}
	return req, rowErrs, nil
}

func parseInventoryRecord(rec []string, col map[string]int) (dto.InventoryImportRow, error) {
	get := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	num := func(name string) (float64, error) {
		v := get(name)
		if v == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("поле %s: не число %q", name, v)
		}
		return f, nil
	}

	row := dto.InventoryImportRow{
		SKUCode:       get("sku_code"),
		LocationCode:  get("location_code"),
		ZoneCode:      get("zone_code"),
		WarehouseCode: get("warehouse_code"),
		Status:        strings.ToLower(get("status")),
	}
	var err error
	if row.Quantity, err = num("quantity"); err != nil {
		return row, err
	}
	if row.ReservedQty, err = num("reserved_qty"); err != nil {
		return row, err
	}
	if row.UnavailableQty, err = num("unavailable_qty"); err != nil {
		return row, err
	}
	if b := get("batch_number"); b != "" {
		row.BatchNumber = &b
	}
	if d := get("expiry_date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return row, fmt.Errorf("поле expiry_date: ожидается ГГГГ-ММ-ДД, получено %q", d)
		}
		row.ExpiryDate = &t
	}
	return row, nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *inventoryService) List(ctx context.Context, filter dto.InventoryFilter) (*dto.InventoryListResponse, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.InventoryListResponse{
		Data:       make([]dto.InventoryResponse, 0, len(rows)),
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}
	for _, inv := range rows {
		r := dto.InventoryResponse{
			ID:             inv.ID.String(),
			SKUID:          inv.SKUID.String(),
			LocationID:     inv.LocationID.String(),
			Quantity:       inv.Quantity,
			ReservedQty:    inv.ReservedQty,
			UnavailableQty: inv.UnavailableQty,
			BatchNumber:    inv.BatchNumber,
			ExpiryDate:     inv.ExpiryDate,
			Status:         string(inv.Status),
			LastUpdated:    inv.LastUpdated,
		}
		if inv.SKU != nil {
			r.SKUCode, r.SKUName = inv.SKU.Code, inv.SKU.Name
		}
		if inv.Location != nil {
			r.LocationCode = inv.Location.Code
		}
		out.Data = append(out.Data, r)
	}
	return out, nil
}

func (s *inventoryService) ImportLogs(ctx context.Context, limit int) ([]dto.ImportLogResponse, error) {
	logs, err := s.logs.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ImportLogResponse, 0, len(logs))
	for _, l := range logs {
		r := dto.ImportLogResponse{
			ID:          l.ID.String(),
			Filename:    l.Filename,
			Type:        l.Type,
			Status:      l.Status,
			TotalRows:   l.TotalRows,
			SuccessRows: l.SuccessRows,
			ErrorRows:   l.ErrorRows,
			Errors:      []model.ImportRowError{},
			StartedAt:   l.StartedAt,
			CompletedAt: l.CompletedAt,
		}
		if len(l.Errors) > 0 {
			_ = json.Unmarshal(l.Errors, &r.Errors)
		}
		out = append(out, r)
	}
	return out, nil
}
