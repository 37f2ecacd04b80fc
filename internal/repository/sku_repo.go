package repository

import (
	"context"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SKURepository interface {
	Create(ctx context.Context, s *model.SKU) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SKU, error)
	FindByCode(ctx context.Context, code string) (*model.SKU, error)
	List(ctx context.Context, filter dto.SKUFilter) ([]model.SKU, int64, error)
	Update(ctx context.Context, s *model.SKU) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type skuRepo struct{ db *gorm.DB }

func NewSKURepository(db *gorm.DB) SKURepository { return &skuRepo{db: db} }

func (r *skuRepo) Create(ctx context.Context, s *model.SKU) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *skuRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SKU, error) {
	var s model.SKU
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *skuRepo) FindByCode(ctx context.Context, code string) (*model.SKU, error) {
	var s model.SKU
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&s).Error
	return &s, err
}

func (r *skuRepo) List(ctx context.Context, filter dto.SKUFilter) ([]model.SKU, int64, error) {
	var skus []model.SKU
	var total int64

	q := r.db.WithContext(ctx).Model(&model.SKU{})

	// "false" = inactive, "all" = both, anything else = active only
	switch filter.Active {
	case "false":
		q = q.Where("active = ?", false)
	case "all":
	default:
		q = q.Where("active = ?", true)
	}

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("LOWER(code) LIKE LOWER(?) OR LOWER(name) LIKE LOWER(?)", like, like)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Supplier != "" {
		q = q.Where("supplier = ?", filter.Supplier)
	}
	if filter.ABCClass != "" {
		q = q.Where("abc_class = ?", filter.ABCClass)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pastLastPage(total, filter.Page, filter.Limit) {
		return skus, total, nil
	}
	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("code ASC").Limit(filter.Limit).Offset(offset).Find(&skus).Error
	return skus, total, err
}

func (r *skuRepo) Update(ctx context.Context, s *model.SKU) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *skuRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tx := r.db.WithContext(ctx).Model(&model.SKU{}).Where("id = ?", id).Update("active", active)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// pastLastPage reports whether page lies beyond the last page of total rows.
// Comparing page counts keeps huge page numbers from overflowing the offset.
func pastLastPage(total int64, page, limit int) bool {
	if limit <= 0 {
		return false
	}
	lastPage := (total + int64(limit) - 1) / int64(limit)
	return int64(page-1) >= lastPage
}
