package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateSKURequest struct {
	Code        string  `json:"code"        validate:"required,max=64"`
	Name        string  `json:"name"        validate:"required,max=200"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Supplier    *string `json:"supplier"`
	ABCClass    *string `json:"abc_class"   validate:"omitempty,oneof=A B C"`
	Unit        string  `json:"unit"`
}

type UpdateSKURequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Supplier    *string `json:"supplier"`
	ABCClass    *string `json:"abc_class"   validate:"omitempty,oneof=A B C"`
	Unit        *string `json:"unit"`
	Active      *bool   `json:"active"`
}

type SKUFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Supplier string `form:"supplier"`
	ABCClass string `form:"abcClass" validate:"omitempty,oneof=A B C"`
	Active   string `form:"active"` // "false" = inactive, "all" = both, default active
	Page     int    `form:"page,default=1"   validate:"min=1,max=1000000"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SKUResponse struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Supplier    *string `json:"supplier,omitempty"`
	ABCClass    *string `json:"abc_class,omitempty"`
	Unit        string  `json:"unit"`
	Active      bool    `json:"active"`
}

type SKUListResponse struct {
	Data       []SKUResponse `json:"data"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}
