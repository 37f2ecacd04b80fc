package model

import "time"

// SettingsID is the primary key of the single settings row.
const SettingsID = 1

// Settings is a singleton with dashboard and alerting preferences.
type Settings struct {
	ID                  uint   `gorm:"primaryKey"`
	CompanyName         string `gorm:"not null"`
	SystemLanguage      string `gorm:"not null"`
	Timezone            string `gorm:"not null"`
	EmailNotifications  bool   `gorm:"not null"`
	LowStockAlerts      bool   `gorm:"not null"`
	CriticalStockAlerts bool   `gorm:"not null"`
	AlertEmail          *string
	AlertThreshold      int    `gorm:"not null"`
	DefaultView         string `gorm:"not null"`
	ShowPercentages     bool   `gorm:"not null"`
	CompactMode         bool   `gorm:"not null"`
	RedThreshold        int    `gorm:"not null"`
	YellowThreshold     int    `gorm:"not null"`
	AutoRefresh         bool   `gorm:"not null"`
	RefreshInterval     int    `gorm:"not null"`
	UpdatedAt           time.Time
}

// DefaultSettings returns the row created on first read.
func DefaultSettings(companyName string) Settings {
	return Settings{
		ID:                  SettingsID,
		CompanyName:         companyName,
		SystemLanguage:      "ru",
		Timezone:            "Europe/Moscow",
		EmailNotifications:  true,
		LowStockAlerts:      true,
		CriticalStockAlerts: true,
		AlertThreshold:      10,
		DefaultView:         "quantity",
		ShowPercentages:     true,
		RedThreshold:        90,
		YellowThreshold:     75,
		AutoRefresh:         true,
		RefreshInterval:     30,
	}
}
