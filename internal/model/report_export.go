package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ReportCSV = "csv"
	ReportPDF = "pdf"
)

// ReportExport is the history entry written for every generated report.
type ReportExport struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Filename    string    `gorm:"not null"`
	ReportType  string    `gorm:"not null"`
	EntityType  EntityType
	RecordCount int `gorm:"not null"`
	Filters     datatypes.JSONMap
	ExportedBy  string    `gorm:"not null"`
	ExportedAt  time.Time `gorm:"not null;index"`
}

func (r *ReportExport) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
