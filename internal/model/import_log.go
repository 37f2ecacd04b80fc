package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ImportTypeInventory  = "inventory"
	ImportTypeNorms      = "norms"
	ImportTypeWarehouses = "warehouses"

	ImportProcessing = "processing"
	ImportCompleted  = "completed"
	ImportFailed     = "failed"
)

// ImportRowError points at a rejected row of an import (1-indexed).
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportLog records the outcome of one import run.
type ImportLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Filename    string    `gorm:"not null"`
	Type        string    `gorm:"not null;index"`
	Status      string    `gorm:"not null"`
	TotalRows   int       `gorm:"not null"`
	SuccessRows int       `gorm:"not null"`
	ErrorRows   int       `gorm:"not null"`
	Errors      datatypes.JSON
	StartedAt   time.Time `gorm:"not null;index"`
	CompletedAt *time.Time
}

func (l *ImportLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
