package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StructureRepository manages the warehouse → zone → location hierarchy.
type StructureRepository interface {
	// Sync upserts the given trees by code in one transaction. Zones and
	// locations are matched within their parent. Every synced node is
	// (re)activated; nodes missing from the payload are left untouched.
	Sync(ctx context.Context, warehouses []model.Warehouse) error
	ListTree(ctx context.Context, includeInactive bool) ([]model.Warehouse, error)
	SetActive(ctx context.Context, level model.EntityType, id uuid.UUID, active bool) error

	FindLocationByID(ctx context.Context, id uuid.UUID) (*model.Location, error)
	// FindLocationsByCode returns every location with the code, with Zone and
	// Zone.Warehouse preloaded so callers can disambiguate.
	FindLocationsByCode(ctx context.Context, code string) ([]model.Location, error)
	ListActiveLocations(ctx context.Context) ([]model.Location, error)
	UpdateCapacity(ctx context.Context, id uuid.UUID, capacity *float64) error
}

type structureRepo struct{ db *gorm.DB }

func NewStructureRepository(db *gorm.DB) StructureRepository { return &structureRepo{db: db} }

func (r *structureRepo) Sync(ctx context.Context, warehouses []model.Warehouse) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range warehouses {
			whID, err := upsertWarehouse(tx, w)
			if err != nil {
				return err
			}
			for _, z := range w.Zones {
				z.WarehouseID = whID
				zoneID, err := upsertZone(tx, z)
				if err != nil {
					return err
				}
				for _, l := range z.Locations {
					l.ZoneID = zoneID
					if err := upsertLocation(tx, l); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func upsertWarehouse(tx *gorm.DB, w model.Warehouse) (uuid.UUID, error) {
	var existing model.Warehouse
	err := tx.Where("code = ?", w.Code).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec := model.Warehouse{Code: w.Code, Name: w.Name, Description: w.Description, Active: true}
		if err := tx.Create(&rec).Error; err != nil {
			return uuid.Nil, fmt.Errorf("create warehouse %s: %w", w.Code, err)
		}
		return rec.ID, nil
	case err != nil:
		return uuid.Nil, err
	}
	existing.Name = w.Name
	existing.Description = w.Description
	existing.Active = true
	if err := tx.Save(&existing).Error; err != nil {
		return uuid.Nil, fmt.Errorf("update warehouse %s: %w", w.Code, err)
	}
	return existing.ID, nil
}

func upsertZone(tx *gorm.DB, z model.Zone) (uuid.UUID, error) {
	var existing model.Zone
	err := tx.Where("warehouse_id = ? AND code = ?", z.WarehouseID, z.Code).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec := model.Zone{WarehouseID: z.WarehouseID, Code: z.Code, Name: z.Name, Active: true}
		if err := tx.Create(&rec).Error; err != nil {
			return uuid.Nil, fmt.Errorf("create zone %s: %w", z.Code, err)
		}
		return rec.ID, nil
	case err != nil:
		return uuid.Nil, err
	}
	existing.Name = z.Name
	existing.Active = true
	if err := tx.Save(&existing).Error; err != nil {
		return uuid.Nil, fmt.Errorf("update zone %s: %w", z.Code, err)
	}
	return existing.ID, nil
}

func upsertLocation(tx *gorm.DB, l model.Location) error {
	var existing model.Location
	err := tx.Where("zone_id = ? AND code = ?", l.ZoneID, l.Code).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		l.ID = uuid.Nil
		l.Active = true
		l.Zone = nil
		if err := tx.Create(&l).Error; err != nil {
			return fmt.Errorf("create location %s: %w", l.Code, err)
		}
		return nil
	case err != nil:
		return err
	}
	existing.Name = l.Name
	existing.Row, existing.Rack, existing.Level = l.Row, l.Rack, l.Level
	existing.Capacity = l.Capacity
	existing.Unit = l.Unit
	existing.Active = true
	if err := tx.Save(&existing).Error; err != nil {
		return fmt.Errorf("update location %s: %w", l.Code, err)
	}
	return nil
}

func (r *structureRepo) ListTree(ctx context.Context, includeInactive bool) ([]model.Warehouse, error) {
	var out []model.Warehouse
	q := r.db.WithContext(ctx)
	if includeInactive {
		q = q.Preload("Zones", func(db *gorm.DB) *gorm.DB { return db.Order("code ASC") }).
			Preload("Zones.Locations", func(db *gorm.DB) *gorm.DB { return db.Order("code ASC") })
	} else {
		q = q.Where("active = ?", true).
			Preload("Zones", func(db *gorm.DB) *gorm.DB { return db.Where("active = ?", true).Order("code ASC") }).
			Preload("Zones.Locations", func(db *gorm.DB) *gorm.DB { return db.Where("active = ?", true).Order("code ASC") })
	}
	err := q.Order("code ASC").Find(&out).Error
	return out, err
}

func (r *structureRepo) SetActive(ctx context.Context, level model.EntityType, id uuid.UUID, active bool) error {
	var target any
	switch level {
	case model.EntityWarehouse:
		target = &model.Warehouse{}
	case model.EntityZone:
		target = &model.Zone{}
	case model.EntityLocation:
		target = &model.Location{}
	default:
		return fmt.Errorf("set active: unsupported level %q", level)
	}
	tx := r.db.WithContext(ctx).Model(target).Where("id = ?", id).Update("active", active)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *structureRepo) FindLocationByID(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	var l model.Location
	err := r.db.WithContext(ctx).Preload("Zone.Warehouse").First(&l, "id = ?", id).Error
	return &l, err
}

func (r *structureRepo) FindLocationsByCode(ctx context.Context, code string) ([]model.Location, error) {
	var out []model.Location
	err := r.db.WithContext(ctx).
		Preload("Zone.Warehouse").
		Where("code = ?", code).
		Find(&out).Error
	return out, err
}

func (r *structureRepo) ListActiveLocations(ctx context.Context) ([]model.Location, error) {
	var out []model.Location
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("code ASC").
		Find(&out).Error
	return out, err
}

func (r *structureRepo) UpdateCapacity(ctx context.Context, id uuid.UUID, capacity *float64) error {
	return r.db.WithContext(ctx).
		Model(&model.Location{}).
		Where("id = ?", id).
		Update("capacity", capacity).Error
}
