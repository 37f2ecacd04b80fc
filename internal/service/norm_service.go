package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/OskolkovOleg/sklad-monitoring/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NormService interface {
	Import(ctx context.Context, req dto.NormImportRequest) (*dto.ImportResult, error)
	Put(ctx context.Context, req dto.PutNormRequest) (*dto.NormResponse, error)
	List(ctx context.Context, filter dto.NormFilter) ([]dto.NormResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type normService struct {
	repo      repository.NormRepository
	skus      repository.SKURepository
	structure repository.StructureRepository
	logs      repository.ImportLogRepository
	recalc    Recalculator
}

func NewNormService(
	repo repository.NormRepository,
	skus repository.SKURepository,
	structure repository.StructureRepository,
	logs repository.ImportLogRepository,
	recalc Recalculator,
) NormService {
	return &normService{repo: repo, skus: skus, structure: structure, logs: logs, recalc: recalc}
}

func mapNorm(n model.Norm) dto.NormResponse {
	return dto.NormResponse{
		ID:          n.ID.String(),
		EntityType:  string(n.EntityType),
		EntityID:    n.EntityID.String(),
		MinLevel:    n.MinLevel,
		TargetLevel: n.TargetLevel,
		MaxLevel:    n.MaxLevel,
		Unit:        n.Unit,
	}
}

// write validates the norm against the owner's capacity and upserts it.
func (s *normService) write(ctx context.Context, n *model.Norm, capacity *float64) error {
	n.Unit = model.NormalizeUnit(n.Unit)
	if err := n.Validate(capacity); err != nil {
		return err
	}
	return s.repo.Upsert(ctx, n)
}

func (s *normService) Import(ctx context.Context, req dto.NormImportRequest) (*dto.ImportResult, error) {
	total := len(req.SKUNorms) + len(req.LocationNorms)
	filename := req.Filename
	if filename == "" {
		filename = "norms.json"
	}
	entry := startImport(ctx, s.logs, filename, model.ImportTypeNorms, total)

	var rowErrs []model.ImportRowError
	success := 0
	row := 0

	for _, r := range req.SKUNorms {
		row++
		sku, err := s.skus.FindByCode(ctx, strings.TrimSpace(r.SKUCode))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = fmt.Errorf("SKU %s не найден", r.SKUCode)
			}
			rowErrs = append(rowErrs, model.ImportRowError{Row: row, Message: err.Error()})
			continue
		}
		unit := r.Unit
		if unit == "" {
			unit = sku.Unit
		}
		n := &model.Norm{EntityType: model.NormSKU, EntityID: sku.ID,
			MinLevel: r.MinLevel, TargetLevel: r.TargetLevel, MaxLevel: r.MaxLevel, Unit: unit}
		if err := s.write(ctx, n, nil); err != nil {
			rowErrs = append(rowErrs, model.ImportRowError{Row: row, Message: err.Error()})
			continue
		}
		success++
	}

	for _, r := range req.LocationNorms {
		row++
		loc, err := resolveLocation(ctx, s.structure, r.LocationCode, r.ZoneCode, r.WarehouseCode)
		if err != nil {
			rowErrs = append(rowErrs, model.ImportRowError{Row: row, Message: err.Error()})
			continue
		}
		unit := r.Unit
		if unit == "" && loc.Unit != nil {
			unit = *loc.Unit
		}
		n := &model.Norm{EntityType: model.NormLocation, EntityID: loc.ID,
			MinLevel: r.MinLevel, TargetLevel: r.TargetLevel, MaxLevel: r.MaxLevel, Unit: unit}
		if err := s.write(ctx, n, loc.Capacity); err != nil {
			rowErrs = append(rowErrs, model.ImportRowError{Row: row, Message: err.Error()})
			continue
		}
		success++
	}

	finishImport(ctx, s.logs, entry, success, rowErrs)
	result := &dto.ImportResult{
		Success:     len(rowErrs) == 0,
		TotalRows:   total,
		SuccessRows: success,
		ErrorRows:   len(rowErrs),
		Errors:      firstRowErrors(rowErrs),
	}
	if entry != nil {
		result.ImportID = entry.ID.String()
	}
	if success > 0 {
		result.Recalculated = recalcAfterWrite(ctx, s.recalc, "norm import")
	}
	return result, nil
}

func (s *normService) Put(ctx context.Context, req dto.PutNormRequest) (*dto.NormResponse, error) {
	entityType := model.NormEntityType(req.EntityType)
	if !entityType.Valid() {
		return nil, ErrInvalidEntityType
	}
	id, err := uuid.Parse(req.EntityID)
	if err != nil {
		return nil, fmt.Errorf("%w: entity_id: %v", ErrInvalidQuery, err)
	}

	n := &model.Norm{EntityType: entityType, EntityID: id,
		MinLevel: req.MinLevel, TargetLevel: req.TargetLevel, MaxLevel: req.MaxLevel, Unit: req.Unit}
	var capacity *float64
	switch entityType {
	case model.NormSKU:
		sku, err := s.skus.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if n.Unit == "" {
			n.Unit = sku.Unit
		}
	case model.NormLocation:
		loc, err := s.structure.FindLocationByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		capacity = loc.Capacity
		if n.Unit == "" && loc.Unit != nil {
			n.Unit = *loc.Unit
		}
	}

	if err := s.write(ctx, n, capacity); err != nil {
		return nil, err
	}
	stored, err := s.repo.FindByEntity(ctx, entityType, id)
	if err != nil {
		return nil, err
	}
	recalcAfterWrite(ctx, s.recalc, "norm put")
	resp := mapNorm(*stored)
	return &resp, nil
}

func (s *normService) List(ctx context.Context, filter dto.NormFilter) ([]dto.NormResponse, error) {
	norms, err := s.repo.List(ctx, model.NormEntityType(filter.EntityType))
	if err != nil {
		return nil, err
	}
	out := make([]dto.NormResponse, 0, len(norms))
	for _, n := range norms {
		out = append(out, mapNorm(n))
	}
	return out, nil
}

func (s *normService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	recalcAfterWrite(ctx, s.recalc, "norm delete")
	return nil
}
