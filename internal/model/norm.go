package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NormEntityType is the owner kind of a norm record.
type NormEntityType string

const (
	NormSKU      NormEntityType = "sku"
	NormLocation NormEntityType = "location"
)

func (t NormEntityType) Valid() bool {
	return t == NormSKU || t == NormLocation
}

var ErrInvalidNorm = errors.New("invalid norm")

// Norm holds the min/target/max thresholds of a SKU or a Location.
// There is at most one norm per owner.
type Norm struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	EntityType  NormEntityType `gorm:"not null;uniqueIndex:idx_norm_entity"`
	EntityID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_norm_entity"`
	MinLevel    *float64
	TargetLevel *float64
	MaxLevel    *float64
	Unit        string `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate enforces min < target < max <= capacity over the values that are
// present. capacity is only meaningful for location norms and may be nil.
func (n *Norm) Validate(capacity *float64) error {
	if !n.EntityType.Valid() {
		return fmt.Errorf("%w: unknown entity type %q", ErrInvalidNorm, n.EntityType)
	}
	for _, v := range []*float64{n.MinLevel, n.TargetLevel, n.MaxLevel} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: levels must not be negative", ErrInvalidNorm)
		}
	}
	if n.MinLevel != nil && n.TargetLevel != nil && *n.MinLevel >= *n.TargetLevel {
		return fmt.Errorf("%w: min %g must be below target %g", ErrInvalidNorm, *n.MinLevel, *n.TargetLevel)
	}
	if n.TargetLevel != nil && n.MaxLevel != nil && *n.TargetLevel >= *n.MaxLevel {
		return fmt.Errorf("%w: target %g must be below max %g", ErrInvalidNorm, *n.TargetLevel, *n.MaxLevel)
	}
	if n.MinLevel != nil && n.MaxLevel != nil && *n.MinLevel >= *n.MaxLevel {
		return fmt.Errorf("%w: min %g must be below max %g", ErrInvalidNorm, *n.MinLevel, *n.MaxLevel)
	}
	if capacity != nil && n.EntityType == NormLocation {
		top := n.MaxLevel
		if top == nil {
			top = n.TargetLevel
		}
		if top == nil {
			top = n.MinLevel
		}
		if top != nil && *top > *capacity {
			return fmt.Errorf("%w: level %g exceeds capacity %g", ErrInvalidNorm, *top, *capacity)
		}
	}
	return nil
}

func (n *Norm) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// BeforeSave checks the level ordering. The capacity bound needs the owning
// location and is checked by the caller.
func (n *Norm) BeforeSave(_ *gorm.DB) error {
	return n.Validate(nil)
}
