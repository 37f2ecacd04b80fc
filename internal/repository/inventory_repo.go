package repository

import (
	"context"
	"errors"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryScope narrows inventory to a part of the hierarchy. Empty fields
// do not restrict. Only active locations inside active zones and warehouses
// are in scope.
type InventoryScope struct {
	WarehouseIDs []uuid.UUID
	ZoneID       *uuid.UUID
	LocationID   *uuid.UUID
}

type InventoryRepository interface {
	List(ctx context.Context, filter dto.InventoryFilter) ([]model.Inventory, int64, error)
	// FindByKey looks up the record of a SKU batch at a location. A nil batch
	// matches rows without a batch number.
	FindByKey(ctx context.Context, skuID, locationID uuid.UUID, batch *string) (*model.Inventory, error)
	Save(ctx context.Context, inv *model.Inventory) error
	SaveAll(ctx context.Context, rows []model.Inventory) error
	ListAll(ctx context.Context) ([]model.Inventory, error)
	ListInScope(ctx context.Context, scope InventoryScope) ([]model.Inventory, error)
	ListBySKU(ctx context.Context, skuID uuid.UUID) ([]model.Inventory, error)
	SKUIDsInScope(ctx context.Context, scope InventoryScope) ([]uuid.UUID, error)
	LastUpdated(ctx context.Context, scope InventoryScope) (*time.Time, error)
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) List(ctx context.Context, filter dto.InventoryFilter) ([]model.Inventory, int64, error) {
	var rows []model.Inventory
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Inventory{})
	if filter.SKUID != "" {
		q = q.Where("sku_id = ?", filter.SKUID)
	}
	if filter.LocationID != "" {
		q = q.Where("location_id = ?", filter.LocationID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pastLastPage(total, filter.Page, filter.Limit) {
		return rows, total, nil
	}
	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("SKU").Preload("Location").
		Order("last_updated DESC").Order("id ASC").
		Limit(filter.Limit).Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

func (r *inventoryRepo) FindByKey(ctx context.Context, skuID, locationID uuid.UUID, batch *string) (*model.Inventory, error) {
	var inv model.Inventory
	q := r.db.WithContext(ctx).Where("sku_id = ? AND location_id = ?", skuID, locationID)
	if batch == nil {
		q = q.Where("batch_number IS NULL")
	} else {
		q = q.Where("batch_number = ?", *batch)
	}
	err := q.First(&inv).Error
	return &inv, err
}

// Save inserts or updates; the model hook rejects invariant violations.
func (r *inventoryRepo) Save(ctx context.Context, inv *model.Inventory) error {
	return r.db.WithContext(ctx).Omit("SKU", "Location").Save(inv).Error
}

func (r *inventoryRepo) SaveAll(ctx context.Context, rows []model.Inventory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Omit("SKU", "Location").Save(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *inventoryRepo) ListAll(ctx context.Context) ([]model.Inventory, error) {
	var rows []model.Inventory
	err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	return rows, err
}

// scoped joins inventory to its location, zone and warehouse.
func (r *inventoryRepo) scoped(ctx context.Context, scope InventoryScope) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Inventory{}).
		Joins("JOIN locations ON locations.id = inventory.location_id").
		Joins("JOIN zones ON zones.id = locations.zone_id").
		Joins("JOIN warehouses ON warehouses.id = zones.warehouse_id").
		Where("locations.active = ? AND zones.active = ? AND warehouses.active = ?", true, true, true)
	if len(scope.WarehouseIDs) > 0 {
		q = q.Where("zones.warehouse_id IN ?", scope.WarehouseIDs)
	}
	if scope.ZoneID != nil {
		q = q.Where("locations.zone_id = ?", *scope.ZoneID)
	}
	if scope.LocationID != nil {
		q = q.Where("inventory.location_id = ?", *scope.LocationID)
	}
	return q
}

func (r *inventoryRepo) ListInScope(ctx context.Context, scope InventoryScope) ([]model.Inventory, error) {
	var rows []model.Inventory
	err := r.scoped(ctx, scope).
		Preload("SKU").
		Order("inventory.id ASC").
		Find(&rows).Error
	return rows, err
}

// ListBySKU returns every row of the SKU, including stock at disabled
// locations, matching the SKU aggregation totals.
func (r *inventoryRepo) ListBySKU(ctx context.Context, skuID uuid.UUID) ([]model.Inventory, error) {
	var rows []model.Inventory
	err := r.db.WithContext(ctx).
		Where("inventory.sku_id = ?", skuID).
		Preload("Location.Zone.Warehouse").
		Order("inventory.id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *inventoryRepo) SKUIDsInScope(ctx context.Context, scope InventoryScope) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.scoped(ctx, scope).
		Distinct("inventory.sku_id").
		Pluck("inventory.sku_id", &ids).Error
	return ids, err
}

func (r *inventoryRepo) LastUpdated(ctx context.Context, scope InventoryScope) (*time.Time, error) {
	var inv model.Inventory
	err := r.scoped(ctx, scope).
		Select("inventory.*").
		Order("inventory.last_updated DESC").
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv.LastUpdated, nil
}
