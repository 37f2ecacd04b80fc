package repository

import (
	"context"
	"errors"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AggregationRepository is the write/read side of the aggregation cache.
// Rows are keyed by (entity_type, entity_id); Upsert never duplicates a key.
type AggregationRepository interface {
	Upsert(ctx context.Context, a *model.Aggregation) error
	// DeleteStale removes rows whose calculated_at predates the given snapshot
	// time: entities deleted or deactivated since the previous recompute.
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
	ListByType(ctx context.Context, t model.EntityType) ([]model.Aggregation, error)
	FindByEntity(ctx context.Context, t model.EntityType, id uuid.UUID) (*model.Aggregation, error)
	ListByStatuses(ctx context.Context, t model.EntityType, statuses []model.Status) ([]model.Aggregation, error)
	LatestCalculatedAt(ctx context.Context) (*time.Time, error)
}

type aggregationRepo struct{ db *gorm.DB }

func NewAggregationRepository(db *gorm.DB) AggregationRepository { return &aggregationRepo{db: db} }

var aggregationUpdateColumns = []string{
	"entity_code", "entity_name", "warehouse_id", "zone_id",
	"category", "supplier", "abc_class",
	"total_quantity", "available_quantity", "reserved_quantity",
	"capacity", "fill_percentage", "min_level", "target_level", "max_level",
	"status", "calculated_at",
}

func (r *aggregationRepo) Upsert(ctx context.Context, a *model.Aggregation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity_type"}, {Name: "entity_id"}},
			DoUpdates: clause.AssignmentColumns(aggregationUpdateColumns),
		}).
		Create(a).Error
}

func (r *aggregationRepo) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).Where("calculated_at < ?", before).Delete(&model.Aggregation{})
	return tx.RowsAffected, tx.Error
}

func (r *aggregationRepo) ListByType(ctx context.Context, t model.EntityType) ([]model.Aggregation, error) {
	var rows []model.Aggregation
	err := r.db.WithContext(ctx).
		Where("entity_type = ?", t).
		Order("entity_code ASC").
		Find(&rows).Error
	return rows, err
}

func (r *aggregationRepo) FindByEntity(ctx context.Context, t model.EntityType, id uuid.UUID) (*model.Aggregation, error) {
	var a model.Aggregation
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", t, id).
		First(&a).Error
	return &a, err
}

func (r *aggregationRepo) ListByStatuses(ctx context.Context, t model.EntityType, statuses []model.Status) ([]model.Aggregation, error) {
	var rows []model.Aggregation
	q := r.db.WithContext(ctx).Where("status IN ?", statuses)
	if t != "" {
		q = q.Where("entity_type = ?", t)
	}
	err := q.Order("calculated_at DESC").Order("entity_code ASC").Find(&rows).Error
	return rows, err
}

func (r *aggregationRepo) LatestCalculatedAt(ctx context.Context) (*time.Time, error) {
	var a model.Aggregation
	err := r.db.WithContext(ctx).Order("calculated_at DESC").First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a.CalculatedAt, nil
}
