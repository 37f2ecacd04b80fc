package repository

import (
	"context"

	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NormRepository interface {
	// Upsert writes the norm of its owner, replacing an existing one.
	Upsert(ctx context.Context, n *model.Norm) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Norm, error)
	FindByEntity(ctx context.Context, t model.NormEntityType, id uuid.UUID) (*model.Norm, error)
	List(ctx context.Context, t model.NormEntityType) ([]model.Norm, error)
	// MapByEntity returns the norms of the given owners keyed by owner id.
	MapByEntity(ctx context.Context, t model.NormEntityType, ids []uuid.UUID) (map[uuid.UUID]model.Norm, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type normRepo struct{ db *gorm.DB }

func NewNormRepository(db *gorm.DB) NormRepository { return &normRepo{db: db} }

func (r *normRepo) Upsert(ctx context.Context, n *model.Norm) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity_type"}, {Name: "entity_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"min_level", "target_level", "max_level", "unit", "updated_at"}),
		}).
		Create(n).Error
}

func (r *normRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Norm, error) {
	var n model.Norm
	err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error
	return &n, err
}

func (r *normRepo) FindByEntity(ctx context.Context, t model.NormEntityType, id uuid.UUID) (*model.Norm, error) {
	var n model.Norm
	err := r.db.WithContext(ctx).Where("entity_type = ? AND entity_id = ?", t, id).First(&n).Error
	return &n, err
}

func (r *normRepo) List(ctx context.Context, t model.NormEntityType) ([]model.Norm, error) {
	var out []model.Norm
	q := r.db.WithContext(ctx)
	if t != "" {
		q = q.Where("entity_type = ?", t)
	}
	err := q.Order("entity_type ASC").Order("updated_at DESC").Find(&out).Error
	return out, err
}

func (r *normRepo) MapByEntity(ctx context.Context, t model.NormEntityType, ids []uuid.UUID) (map[uuid.UUID]model.Norm, error) {
	out := make(map[uuid.UUID]model.Norm, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.Norm
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id IN ?", t, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, n := range rows {
		out[n.EntityID] = n
	}
	return out, nil
}

func (r *normRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx).Delete(&model.Norm{}, "id = ?", id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
