package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ABC classes used as a filter dimension for SKUs.
const (
	ABCClassA = "A"
	ABCClassB = "B"
	ABCClassC = "C"
)

// SKU is a stock keeping unit. It is independent of the storage hierarchy and
// can be stored in many locations at once.
type SKU struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code        string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	Category    *string `gorm:"index"`
	Supplier    *string `gorm:"index"`
	ABCClass    *string `gorm:"column:abc_class"`
	Unit        string  `gorm:"not null"`
	Active      bool    `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName keeps the acronym readable (GORM would produce "sk_us").
func (SKU) TableName() string { return "skus" }

func (s *SKU) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
