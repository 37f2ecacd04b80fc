package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/OskolkovOleg/sklad-monitoring/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SKUService interface {
	Create(ctx context.Context, req dto.CreateSKURequest) (*dto.SKUResponse, error)
	List(ctx context.Context, filter dto.SKUFilter) (*dto.SKUListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateSKURequest) (*dto.SKUResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type skuService struct {
	repo   repository.SKURepository
	recalc Recalculator
}

func NewSKUService(repo repository.SKURepository, recalc Recalculator) SKUService {
	return &skuService{repo: repo, recalc: recalc}
}

func mapSKU(s model.SKU) dto.SKUResponse {
	return dto.SKUResponse{
		ID:          s.ID.String(),
		Code:        s.Code,
		Name:        s.Name,
		Description: s.Description,
		Category:    s.Category,
		Supplier:    s.Supplier,
		ABCClass:    s.ABCClass,
		Unit:        s.Unit,
		Active:      s.Active,
	}
}

func normalizeABC(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return ptr(strings.ToUpper(strings.TrimSpace(*v)))
}

func (s *skuService) Create(ctx context.Context, req dto.CreateSKURequest) (*dto.SKUResponse, error) {
	code := strings.TrimSpace(req.Code)
	_, err := s.repo.FindByCode(ctx, code)
	if err == nil {
		return nil, fmt.Errorf("%w: SKU %s", ErrConflict, code)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sku := &model.SKU{
		Code:        code,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Supplier:    req.Supplier,
		ABCClass:    normalizeABC(req.ABCClass),
		Unit:        model.NormalizeUnit(req.Unit),
		Active:      true,
	}
	if err := s.repo.Create(ctx, sku); err != nil {
		return nil, err
	}
	recalcAfterWrite(ctx, s.recalc, "sku create")
	resp := mapSKU(*sku)
	return &resp, nil
}

func (s *skuService) List(ctx context.Context, filter dto.SKUFilter) (*dto.SKUListResponse, error) {
	skus, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.SKUListResponse{
		Data:       make([]dto.SKUResponse, 0, len(skus)),
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}
	for _, sku := range skus {
		out.Data = append(out.Data, mapSKU(sku))
	}
	return out, nil
}

func (s *skuService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateSKURequest) (*dto.SKUResponse, error) {
	sku, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		sku.Name = *req.Name
	}
	if req.Description != nil {
		sku.Description = req.Description
	}
	if req.Category != nil {
		sku.Category = req.Category
	}
	if req.Supplier != nil {
		sku.Supplier = req.Supplier
	}
	if req.ABCClass != nil {
		sku.ABCClass = normalizeABC(req.ABCClass)
	}
	if req.Unit != nil {
		sku.Unit = model.NormalizeUnit(*req.Unit)
	}
	if req.Active != nil {
		sku.Active = *req.Active
	}

	if err := s.repo.Update(ctx, sku); err != nil {
		return nil, err
	}
	recalcAfterWrite(ctx, s.recalc, "sku update")
	resp := mapSKU(*sku)
	return &resp, nil
}

func (s *skuService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	recalcAfterWrite(ctx, s.recalc, "sku deactivate")
	return nil
}
