package dto

import "time"

type ReportHistoryQuery struct {
	Limit int `form:"limit,default=50" validate:"min=1,max=500"`
}

type ReportExportResponse struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	ReportType  string         `json:"report_type"`
	EntityType  string         `json:"entity_type"`
	RecordCount int            `json:"record_count"`
	Filters     map[string]any `json:"filters"`
	ExportedBy  string         `json:"exported_by"`
	ExportedAt  time.Time      `json:"exported_at"`
}
