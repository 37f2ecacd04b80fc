package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryStatus describes whether a stock record can be picked.
type InventoryStatus string

const (
	InventoryAvailable   InventoryStatus = "available"
	InventoryReserved    InventoryStatus = "reserved"
	InventoryUnavailable InventoryStatus = "unavailable"
)

// Valid reports whether s is one of the known inventory statuses.
func (s InventoryStatus) Valid() bool {
	switch s {
	case InventoryAvailable, InventoryReserved, InventoryUnavailable:
		return true
	}
	return false
}

var (
	ErrNegativeQuantity   = errors.New("inventory quantities must not be negative")
	ErrInventoryInvariant = errors.New("reserved + unavailable quantity exceeds quantity")
)

// Inventory links a SKU to a Location. One location may hold several SKUs and
// one SKU may be stored in several locations and batches.
type Inventory struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SKUID          uuid.UUID       `gorm:"column:sku_id;type:uuid;not null;index:idx_inventory_sku_location"`
	LocationID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_inventory_sku_location;index"`
	Quantity       float64         `gorm:"not null"`
	ReservedQty    float64         `gorm:"not null"`
	UnavailableQty float64         `gorm:"not null"`
	BatchNumber    *string
	ExpiryDate     *time.Time
	Status         InventoryStatus `gorm:"not null;index"`
	LastUpdated    time.Time       `gorm:"not null;index"`
	CreatedAt      time.Time

	SKU      *SKU      `gorm:"foreignKey:SKUID"`
	Location *Location `gorm:"foreignKey:LocationID"`
}

// TableName keeps the uncountable noun as is.
func (Inventory) TableName() string { return "inventory" }

// Validate checks the quantity invariants. Every write path goes through it
// via the BeforeSave hook.
func (i *Inventory) Validate() error {
	if i.Quantity < 0 || i.ReservedQty < 0 || i.UnavailableQty < 0 {
		return ErrNegativeQuantity
	}
	if i.ReservedQty+i.UnavailableQty > i.Quantity {
		return fmt.Errorf("%w: reserved %g + unavailable %g > quantity %g",
			ErrInventoryInvariant, i.ReservedQty, i.UnavailableQty, i.Quantity)
	}
	if i.Status != "" && !i.Status.Valid() {
		return fmt.Errorf("unknown inventory status %q", i.Status)
	}
	return nil
}

func (i *Inventory) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *Inventory) BeforeSave(_ *gorm.DB) error {
	if err := i.Validate(); err != nil {
		return err
	}
	if i.Status == "" {
		i.Status = InventoryAvailable
	}
	if i.LastUpdated.IsZero() {
		i.LastUpdated = time.Now()
	}
	return nil
}
