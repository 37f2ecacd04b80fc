package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SKUNormRow struct {
	SKUCode     string   `json:"sku_code"     validate:"required"`
	MinLevel    *float64 `json:"min_level"    validate:"omitempty,min=0"`
	TargetLevel *float64 `json:"target_level" validate:"omitempty,min=0"`
	MaxLevel    *float64 `json:"max_level"    validate:"omitempty,min=0"`
	Unit        string   `json:"unit"`
}

type LocationNormRow struct {
	LocationCode  string   `json:"location_code"  validate:"required"`
	ZoneCode      string   `json:"zone_code"`
	WarehouseCode string   `json:"warehouse_code"`
	MinLevel      *float64 `json:"min_level"      validate:"omitempty,min=0"`
	TargetLevel   *float64 `json:"target_level"   validate:"omitempty,min=0"`
	MaxLevel      *float64 `json:"max_level"      validate:"omitempty,min=0"`
	Unit          string   `json:"unit"`
}

type NormImportRequest struct {
	Filename      string            `json:"filename"`
	SKUNorms      []SKUNormRow      `json:"sku_norms"`
	LocationNorms []LocationNormRow `json:"location_norms"`
}

// PutNormRequest creates or replaces the norm of one SKU or Location.
type PutNormRequest struct {
	EntityType  string   `json:"entity_type"  validate:"required,oneof=sku location"`
	EntityID    string   `json:"entity_id"    validate:"required,uuid"`
	MinLevel    *float64 `json:"min_level"    validate:"omitempty,min=0"`
	TargetLevel *float64 `json:"target_level" validate:"omitempty,min=0"`
	MaxLevel    *float64 `json:"max_level"    validate:"omitempty,min=0"`
	Unit        string   `json:"unit"`
}

type NormFilter struct {
	EntityType string `form:"entityType" validate:"omitempty,oneof=sku location"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type NormResponse struct {
	ID          string   `json:"id"`
	EntityType  string   `json:"entity_type"`
	EntityID    string   `json:"entity_id"`
	MinLevel    *float64 `json:"min_level"`
	TargetLevel *float64 `json:"target_level"`
	MaxLevel    *float64 `json:"max_level"`
	Unit        string   `json:"unit"`
}
