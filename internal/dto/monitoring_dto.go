package dto

import "time"

type KPIQuery struct {
	WarehouseID string `form:"warehouseId" validate:"omitempty,uuid"`
	ZoneID      string `form:"zoneId"      validate:"omitempty,uuid"`
}

type KPIResponse struct {
	TotalPositions    int        `json:"total_positions"`
	GreenCount        int        `json:"green_count"`
	YellowCount       int        `json:"yellow_count"`
	RedCount          int        `json:"red_count"`
	GrayCount         int        `json:"gray_count"`
	AvgFillPercentage float64    `json:"avg_fill_percentage"`
	TotalQuantity     float64    `json:"total_quantity"`
	TotalCapacity     float64    `json:"total_capacity"`
	UtilizationRate   float64    `json:"utilization_rate"`
	LastUpdate        *time.Time `json:"last_update"`
}

type AlertsQuery struct {
	Limit int `form:"limit,default=10" validate:"min=1,max=100"`
}

type AlertResponse struct {
	ID             string    `json:"id"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	EntityCode     string    `json:"entity_code"`
	EntityName     string    `json:"entity_name"`
	Severity       string    `json:"severity"` // high | medium
	Status         string    `json:"status"`
	Message        string    `json:"message"`
	TotalQuantity  float64   `json:"total_quantity"`
	FillPercentage *float64  `json:"fill_percentage"`
	CalculatedAt   time.Time `json:"calculated_at"`
}

// AlertDigest is the payload of the alert e-mail job.
type AlertDigest struct {
	To          []string        `json:"to"`
	CompanyName string          `json:"company_name"`
	GeneratedAt time.Time       `json:"generated_at"`
	Alerts      []AlertResponse `json:"alerts"`
}
