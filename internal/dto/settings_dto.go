package dto

import "time"

type UpdateSettingsRequest struct {
	CompanyName         *string `json:"company_name"          validate:"omitempty,min=1,max=200"`
	SystemLanguage      *string `json:"system_language"       validate:"omitempty,oneof=ru en"`
	Timezone            *string `json:"timezone"              validate:"omitempty,timezone"`
	EmailNotifications  *bool   `json:"email_notifications"`
	LowStockAlerts      *bool   `json:"low_stock_alerts"`
	CriticalStockAlerts *bool   `json:"critical_stock_alerts"`
	AlertEmail          *string `json:"alert_email"           validate:"omitempty,email"`
	AlertThreshold      *int    `json:"alert_threshold"       validate:"omitempty,min=0,max=100"`
	DefaultView         *string `json:"default_view"          validate:"omitempty,oneof=quantity percentage"`
	ShowPercentages     *bool   `json:"show_percentages"`
	CompactMode         *bool   `json:"compact_mode"`
	RedThreshold        *int    `json:"red_threshold"         validate:"omitempty,min=0,max=100"`
	YellowThreshold     *int    `json:"yellow_threshold"      validate:"omitempty,min=0,max=100"`
	AutoRefresh         *bool   `json:"auto_refresh"`
	RefreshInterval     *int    `json:"refresh_interval"      validate:"omitempty,min=5,max=3600"`
}

type SettingsResponse struct {
	CompanyName         string    `json:"company_name"`
	SystemLanguage      string    `json:"system_language"`
	Timezone            string    `json:"timezone"`
	EmailNotifications  bool      `json:"email_notifications"`
	LowStockAlerts      bool      `json:"low_stock_alerts"`
	CriticalStockAlerts bool      `json:"critical_stock_alerts"`
	AlertEmail          *string   `json:"alert_email"`
	AlertThreshold      int       `json:"alert_threshold"`
	DefaultView         string    `json:"default_view"`
	ShowPercentages     bool      `json:"show_percentages"`
	CompactMode         bool      `json:"compact_mode"`
	RedThreshold        int       `json:"red_threshold"`
	YellowThreshold     int       `json:"yellow_threshold"`
	AutoRefresh         bool      `json:"auto_refresh"`
	RefreshInterval     int       `json:"refresh_interval"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type TickResult struct {
	Changed      int       `json:"changed"`
	Moves        int       `json:"moves"`
	GrayHoles    int       `json:"gray_holes"`
	Restored     int       `json:"restored"`
	Recalculated bool      `json:"recalculated"`
	CalculatedAt time.Time `json:"calculated_at"`
}
