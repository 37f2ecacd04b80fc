package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Warehouse is the top of the storage hierarchy. Warehouses are never hard
// deleted while referenced; Active=false hides the whole subtree.
type Warehouse struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code        string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"not null"`
	Description *string
	Active      bool `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Zones []Zone `gorm:"foreignKey:WarehouseID"`
}

func (w *Warehouse) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// Zone belongs to exactly one warehouse. Codes are unique per warehouse.
type Zone struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_zone_warehouse_code"`
	Code        string    `gorm:"not null;uniqueIndex:idx_zone_warehouse_code"`
	Name        string    `gorm:"not null"`
	Active      bool      `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Warehouse *Warehouse `gorm:"foreignKey:WarehouseID"`
	Locations []Location `gorm:"foreignKey:ZoneID"`
}

func (z *Zone) BeforeCreate(_ *gorm.DB) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return nil
}

// Location is a storage cell inside a zone. A nil Capacity means the ceiling
// is unknown, which is different from a capacity of zero.
type Location struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ZoneID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_location_zone_code"`
	Code      string    `gorm:"not null;uniqueIndex:idx_location_zone_code;index"`
	Name      string    `gorm:"not null"`
	Row       *string
	Rack      *string
	Level     *string
	Capacity  *float64
	Unit      *string
	Active    bool `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Zone *Zone `gorm:"foreignKey:ZoneID"`
}

func (l *Location) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
