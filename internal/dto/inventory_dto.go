package dto

import (
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// InventoryImportRow is one stock record. The location is looked up by code;
// ZoneCode and WarehouseCode disambiguate codes reused across zones.
type InventoryImportRow struct {
	SKUCode        string     `json:"sku_code"        validate:"required"`
	LocationCode   string     `json:"location_code"   validate:"required"`
	ZoneCode       string     `json:"zone_code"`
	WarehouseCode  string     `json:"warehouse_code"`
	Quantity       float64    `json:"quantity"        validate:"min=0"`
	ReservedQty    float64    `json:"reserved_qty"    validate:"min=0"`
	UnavailableQty float64    `json:"unavailable_qty" validate:"min=0"`
	BatchNumber    *string    `json:"batch_number"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	Status         string     `json:"status"          validate:"omitempty,oneof=available reserved unavailable"`
}

// Rows are validated one by one by the service so that a bad row is
// reported without rejecting the whole import.
type InventoryImportRequest struct {
	Filename string               `json:"filename"`
	Rows     []InventoryImportRow `json:"rows" validate:"required,min=1,max=50000"`
}

type InventoryFilter struct {
	SKUID      string `form:"skuId"      validate:"omitempty,uuid"`
	LocationID string `form:"locationId" validate:"omitempty,uuid"`
	Status     string `form:"status"     validate:"omitempty,oneof=available reserved unavailable"`
	Page       int    `form:"page,default=1"   validate:"min=1,max=1000000"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ImportResult struct {
	ImportID    string                 `json:"import_id"`
	Success     bool                   `json:"success"`
	TotalRows   int                    `json:"total_rows"`
	SuccessRows int                    `json:"success_rows"`
	ErrorRows   int                    `json:"error_rows"`
	Errors      []model.ImportRowError `json:"errors"`
	// Recalculated is false when the import succeeded but the follow-up
	// recompute failed; aggregations are stale until the next one.
	Recalculated bool `json:"recalculated"`
}

type InventoryResponse struct {
	ID             string     `json:"id"`
	SKUID          string     `json:"sku_id"`
	SKUCode        string     `json:"sku_code,omitempty"`
	SKUName        string     `json:"sku_name,omitempty"`
	LocationID     string     `json:"location_id"`
	LocationCode   string     `json:"location_code,omitempty"`
	Quantity       float64    `json:"quantity"`
	ReservedQty    float64    `json:"reserved_qty"`
	UnavailableQty float64    `json:"unavailable_qty"`
	BatchNumber    *string    `json:"batch_number,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	Status         string     `json:"status"`
	LastUpdated    time.Time  `json:"last_updated"`
}

type InventoryListResponse struct {
	Data       []InventoryResponse `json:"data"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	TotalPages int                 `json:"total_pages"`
}

type ImportLogResponse struct {
	ID          string                 `json:"id"`
	Filename    string                 `json:"filename"`
	Type        string                 `json:"type"`
	Status      string                 `json:"status"`
	TotalRows   int                    `json:"total_rows"`
	SuccessRows int                    `json:"success_rows"`
	ErrorRows   int                    `json:"error_rows"`
	Errors      []model.ImportRowError `json:"errors"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

type ImportLogQuery struct {
	Limit int `form:"limit,default=50" validate:"min=1,max=500"`
}
