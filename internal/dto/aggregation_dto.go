package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/aggregation"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"github.com/google/uuid"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AggregationQuery is the read interface query string. WarehouseID accepts a
// comma separated list for multi-select.
type AggregationQuery struct {
	EntityType  string `form:"entityType,default=warehouse" json:"entity_type" validate:"required,oneof=warehouse zone location sku"`
	Status      string `form:"status"      json:"status,omitempty"       validate:"omitempty,oneof=green yellow red gray"`
	Search      string `form:"search"      json:"search,omitempty"       validate:"max=200"`
	WarehouseID string `form:"warehouseId" json:"warehouse_id,omitempty"`
	ZoneID      string `form:"zoneId"      json:"zone_id,omitempty"      validate:"omitempty,uuid"`
	LocationID  string `form:"locationId"  json:"location_id,omitempty"  validate:"omitempty,uuid"`
	Category    string `form:"category"    json:"category,omitempty"`
	Supplier    string `form:"supplier"    json:"supplier,omitempty"`
	ABCClass    string `form:"abcClass"    json:"abc_class,omitempty"    validate:"omitempty,oneof=A B C"`
	SortField   string `form:"sortField,default=entityName" json:"sort_field" validate:"oneof=entityName fillPercentage totalQuantity availableQuantity deviationFromMin"`
	SortOrder   string `form:"sortOrder,default=asc"        json:"sort_order" validate:"oneof=asc desc"`
	Page        int    `form:"page,default=1"               json:"page"      validate:"min=1,max=1000000"`
	PageSize    int    `form:"pageSize,default=100"         json:"page_size" validate:"min=1,max=5000"`
}

// Scope is the hierarchy part of a query, resolved by the service into
// entity ids where rows carry no ancestor ids (SKU rows).
type Scope struct {
	WarehouseIDs []uuid.UUID
	ZoneID       *uuid.UUID
	LocationID   *uuid.UUID
}

func (s Scope) Empty() bool {
	return len(s.WarehouseIDs) == 0 && s.ZoneID == nil && s.LocationID == nil
}

// Specs turns a validated query into typed core specs.
func (q AggregationQuery) Specs() (aggregation.FilterSpec, aggregation.SortSpec, aggregation.PageSpec, Scope, error) {
	var scope Scope
	filter := aggregation.FilterSpec{
		EntityType: model.EntityType(q.EntityType),
		Status:     model.Status(q.Status),
		Search:     strings.TrimSpace(q.Search),
		Category:   q.Category,
		Supplier:   q.Supplier,
		ABCClass:   q.ABCClass,
	}
	if q.WarehouseID != "" {
		for _, part := range strings.Split(q.WarehouseID, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				return filter, aggregation.SortSpec{}, aggregation.PageSpec{}, scope, fmt.Errorf("warehouseId %q: %w", part, err)
			}
			scope.WarehouseIDs = append(scope.WarehouseIDs, id)
		}
	}
	if q.ZoneID != "" {
		id, err := uuid.Parse(q.ZoneID)
		if err != nil {
			return filter, aggregation.SortSpec{}, aggregation.PageSpec{}, scope, fmt.Errorf("zoneId: %w", err)
		}
		scope.ZoneID = &id
	}
	if q.LocationID != "" {
		id, err := uuid.Parse(q.LocationID)
		if err != nil {
			return filter, aggregation.SortSpec{}, aggregation.PageSpec{}, scope, fmt.Errorf("locationId: %w", err)
		}
		scope.LocationID = &id
	}
	filter.WarehouseIDs = scope.WarehouseIDs
	filter.ZoneID = scope.ZoneID

	sort := aggregation.SortSpec{Field: aggregation.SortField(q.SortField), Order: aggregation.SortOrder(q.SortOrder)}
	page := aggregation.PageSpec{Page: q.Page, PageSize: q.PageSize}.Normalize()
	return filter, sort, page, scope, nil
}

// CacheKey is a stable identity of the query for the read cache.
func (q AggregationQuery) CacheKey() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%d|%d",
		q.EntityType, q.Status, strings.ToLower(strings.TrimSpace(q.Search)), q.WarehouseID, q.ZoneID, q.LocationID,
		q.Category, q.Supplier, q.ABCClass, q.SortField, q.SortOrder, q.Page, q.PageSize)
}

// BarsQuery pages through the bars of one level; SKU catalogues can exceed
// a single chart.
type BarsQuery struct {
	Level    string `form:"level,default=warehouse" validate:"oneof=warehouse zone location sku"`
	ParentID string `form:"parentId"                validate:"omitempty,uuid"`
	Page     int    `form:"page,default=1"          validate:"min=1,max=1000000"`
	PageSize int    `form:"pageSize,default=500"    validate:"min=1,max=5000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AggregationResponse struct {
	ID                string    `json:"id"`
	EntityType        string    `json:"entity_type"`
	EntityID          string    `json:"entity_id"`
	EntityCode        string    `json:"entity_code"`
	EntityName        string    `json:"entity_name"`
	WarehouseID       *string   `json:"warehouse_id,omitempty"`
	ZoneID            *string   `json:"zone_id,omitempty"`
	Category          *string   `json:"category,omitempty"`
	Supplier          *string   `json:"supplier,omitempty"`
	ABCClass          *string   `json:"abc_class,omitempty"`
	TotalQuantity     float64   `json:"total_quantity"`
	AvailableQuantity float64   `json:"available_quantity"`
	ReservedQuantity  float64   `json:"reserved_quantity"`
	Capacity          *float64  `json:"capacity"`
	FillPercentage    *float64  `json:"fill_percentage"`
	MinLevel          *float64  `json:"min_level"`
	TargetLevel       *float64  `json:"target_level"`
	MaxLevel          *float64  `json:"max_level"`
	DeviationFromMin  float64   `json:"deviation_from_min"`
	Status            string    `json:"status"`
	CalculatedAt      time.Time `json:"calculated_at"`
}

type AggregationPage struct {
	Data       []AggregationResponse `json:"data"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
	// Stale is set when the last recompute failed; Data is the last good snapshot.
	Stale     bool    `json:"stale"`
	LastError *string `json:"last_error,omitempty"`
}

type RecalculateResponse struct {
	Queued       bool      `json:"queued"`
	CalculatedAt time.Time `json:"calculated_at,omitempty"`
	Warehouses   int       `json:"warehouses"`
	Zones        int       `json:"zones"`
	Locations    int       `json:"locations"`
	SKUs         int       `json:"skus"`
	Pruned       int64     `json:"pruned"`
	DurationMs   int64     `json:"duration_ms"`
}

type TopItemResponse struct {
	ID         string  `json:"id"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Unit       string  `json:"unit,omitempty"`
	Quantity   float64 `json:"quantity"`
	Percentage float64 `json:"percentage"`
}

type ProblemItemResponse struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Threshold float64 `json:"threshold"`
	Shortfall float64 `json:"shortfall"`
	Severity  string  `json:"severity"`
	Issue     string  `json:"issue"`
}

type AggregationDetails struct {
	AggregationResponse
	TopItems     []TopItemResponse     `json:"top_items"`
	ProblemItems []ProblemItemResponse `json:"problem_items"`
}

type BarItem struct {
	ID             string   `json:"id"`
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	EntityType     string   `json:"entity_type"`
	Value          float64  `json:"value"`
	Capacity       *float64 `json:"capacity"`
	FillPercentage *float64 `json:"fill_percentage"`
	Status         string   `json:"status"`
}

type BarsPage struct {
	Data       []BarItem `json:"data"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}
