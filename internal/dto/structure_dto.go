package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SyncLocationRequest struct {
	Code     string   `json:"code"     validate:"required,max=64"`
	Name     string   `json:"name"     validate:"required,max=200"`
	Row      *string  `json:"row"`
	Rack     *string  `json:"rack"`
	Level    *string  `json:"level"`
	Capacity *float64 `json:"capacity" validate:"omitempty,min=0"`
	Unit     *string  `json:"unit"`
}

type SyncZoneRequest struct {
	Code      string                `json:"code"      validate:"required,max=64"`
	Name      string                `json:"name"      validate:"required,max=200"`
	Locations []SyncLocationRequest `json:"locations" validate:"dive"`
}

type SyncWarehouseRequest struct {
	Code        string            `json:"code"        validate:"required,max=64"`
	Name        string            `json:"name"        validate:"required,max=200"`
	Description *string           `json:"description"`
	Zones       []SyncZoneRequest `json:"zones"       validate:"dive"`
}

// StructureSyncRequest upserts warehouses, zones and locations by code.
type StructureSyncRequest struct {
	Warehouses []SyncWarehouseRequest `json:"warehouses" validate:"required,min=1,dive"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StructureSyncResponse struct {
	ImportID     string `json:"import_id"`
	Warehouses   int    `json:"warehouses"`
	Zones        int    `json:"zones"`
	Locations    int    `json:"locations"`
	Recalculated bool   `json:"recalculated"`
}

type LocationResponse struct {
	ID       string   `json:"id"`
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Row      *string  `json:"row,omitempty"`
	Rack     *string  `json:"rack,omitempty"`
	Level    *string  `json:"level,omitempty"`
	Capacity *float64 `json:"capacity"`
	Unit     *string  `json:"unit,omitempty"`
	Active   bool     `json:"active"`
}

type ZoneResponse struct {
	ID        string             `json:"id"`
	Code      string             `json:"code"`
	Name      string             `json:"name"`
	Active    bool               `json:"active"`
	Locations []LocationResponse `json:"locations"`
}

type WarehouseResponse struct {
	ID          string         `json:"id"`
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Active      bool           `json:"active"`
	Zones       []ZoneResponse `json:"zones"`
}
