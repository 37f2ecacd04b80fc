package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the single-glance health classification of an entity.
type Status string

const (
	StatusGreen  Status = "green"
	StatusYellow Status = "yellow"
	StatusRed    Status = "red"
	StatusGray   Status = "gray"
)

func (s Status) Valid() bool {
	switch s {
	case StatusGreen, StatusYellow, StatusRed, StatusGray:
		return true
	}
	return false
}

// EntityType is the hierarchy level an aggregation row describes.
type EntityType string

const (
	EntityWarehouse EntityType = "warehouse"
	EntityZone      EntityType = "zone"
	EntityLocation  EntityType = "location"
	EntitySKU       EntityType = "sku"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityWarehouse, EntityZone, EntityLocation, EntitySKU:
		return true
	}
	return false
}

// Aggregation is the derived, fully recomputable roll-up of one entity.
// Exactly one row exists per (EntityType, EntityID). Ancestor ids and SKU
// attributes are copied in so reads can filter without joins.
type Aggregation struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EntityType        EntityType `gorm:"not null;uniqueIndex:idx_aggregation_entity"`
	EntityID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_aggregation_entity"`
	EntityCode        string     `gorm:"not null"`
	EntityName        string     `gorm:"not null"`
	WarehouseID       *uuid.UUID `gorm:"type:uuid;index"`
	ZoneID            *uuid.UUID `gorm:"type:uuid;index"`
	Category          *string
	Supplier          *string
	ABCClass          *string `gorm:"column:abc_class"`
	TotalQuantity     float64 `gorm:"not null"`
	AvailableQuantity float64 `gorm:"not null"`
	ReservedQuantity  float64 `gorm:"not null"`
	Capacity          *float64
	FillPercentage    *float64
	MinLevel          *float64
	TargetLevel       *float64
	MaxLevel          *float64
	Status            Status    `gorm:"not null;index"`
	CalculatedAt      time.Time `gorm:"not null;index"`
}

func (a *Aggregation) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
