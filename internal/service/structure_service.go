package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/OskolkovOleg/sklad-monitoring/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StructureService interface {
	Sync(ctx context.Context, req dto.StructureSyncRequest) (*dto.StructureSyncResponse, error)
	List(ctx context.Context, includeInactive bool) ([]dto.WarehouseResponse, error)
	SetActive(ctx context.Context, level model.EntityType, id uuid.UUID, active bool) error
}

type structureService struct {
	repo   repository.StructureRepository
	logs   repository.ImportLogRepository
	recalc Recalculator
}

func NewStructureService(repo repository.StructureRepository, logs repository.ImportLogRepository, recalc Recalculator) StructureService {
	return &structureService{repo: repo, logs: logs, recalc: recalc}
}

func (s *structureService) Sync(ctx context.Context, req dto.StructureSyncRequest) (*dto.StructureSyncResponse, error) {
	resp := &dto.StructureSyncResponse{}
	trees := make([]model.Warehouse, 0, len(req.Warehouses))
	for _, w := range req.Warehouses {
		wh := model.Warehouse{Code: strings.TrimSpace(w.Code), Name: w.Name, Description: w.Description}
		for _, z := range w.Zones {
			zone := model.Zone{Code: strings.TrimSpace(z.Code), Name: z.Name}
			for _, l := range z.Locations {
				loc := model.Location{
					Code: strings.TrimSpace(l.Code), Name: l.Name,
					Row: l.Row, Rack: l.Rack, Level: l.Level,
					Capacity: l.Capacity,
				}
				if l.Unit != nil {
					loc.Unit = ptr(model.NormalizeUnit(*l.Unit))
				}
				zone.Locations = append(zone.Locations, loc)
				resp.Locations++
			}
			wh.Zones = append(wh.Zones, zone)
			resp.Zones++
		}
		trees = append(trees, wh)
		resp.Warehouses++
	}

	total := resp.Warehouses + resp.Zones + resp.Locations
	entry := startImport(ctx, s.logs, "structure.json", model.ImportTypeWarehouses, total)
	if err := s.repo.Sync(ctx, trees); err != nil {
		finishImport(ctx, s.logs, entry, 0, []model.ImportRowError{{Row: 0, Message: err.Error()}})
		return nil, fmt.Errorf("sync structure: %w", err)
	}
	finishImport(ctx, s.logs, entry, total, nil)
	if entry != nil {
		resp.ImportID = entry.ID.String()
	}

	resp.Recalculated = recalcAfterWrite(ctx, s.recalc, "structure sync")
	return resp, nil
}

func (s *structureService) List(ctx context.Context, includeInactive bool) ([]dto.WarehouseResponse, error) {
	tree, err := s.repo.ListTree(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]dto.WarehouseResponse, 0, len(tree))
	for _, w := range tree {
		wr := dto.WarehouseResponse{
			ID: w.ID.String(), Code: w.Code, Name: w.Name,
			Description: w.Description, Active: w.Active,
			Zones: make([]dto.ZoneResponse, 0, len(w.Zones)),
		}
		for _, z := range w.Zones {
			zr := dto.ZoneResponse{
				ID: z.ID.String(), Code: z.Code, Name: z.Name, Active: z.Active,
				Locations: make([]dto.LocationResponse, 0, len(z.Locations)),
			}
			for _, l := range z.Locations {
				zr.Locations = append(zr.Locations, dto.LocationResponse{
					ID: l.ID.String(), Code: l.Code, Name: l.Name,
					Row: l.Row, Rack: l.Rack, Level: l.Level,
					Capacity: l.Capacity, Unit: l.Unit, Active: l.Active,
				})
			}
			wr.Zones = append(wr.Zones, zr)
		}
		out = append(out, wr)
	}
	return out, nil
}

func (s *structureService) SetActive(ctx context.Context, level model.EntityType, id uuid.UUID, active bool) error {
	if level != model.EntityWarehouse && level != model.EntityZone && level != model.EntityLocation {
		return ErrInvalidEntityType
	}
	if err := s.repo.SetActive(ctx, level, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	recalcAfterWrite(ctx, s.recalc, "set active")
	return nil
}

// ── Shared helpers ───────────────────────────────────────────────────────────

// recalcAfterWrite refreshes the aggregation cache after a source change.
// A failed recompute does not undo the write; the cache stays stale and the
// read side reports it.
func recalcAfterWrite(ctx context.Context, r Recalculator, what string) bool {
	if r == nil {
		return false
	}
	if _, err := r.RecalculateAll(ctx); err != nil {
		log.Warn().Err(err).Str("after", what).Msg("recompute after write failed")
		return false
	}
	return true
}

// resolveLocation finds a location by code. zoneCode and warehouseCode narrow
// the match when the same code exists in several zones.
func resolveLocation(ctx context.Context, repo repository.StructureRepository, code, zoneCode, warehouseCode string) (*model.Location, error) {
	candidates, err := repo.FindLocationsByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	var matched []model.Location
	for _, l := range candidates {
		if zoneCode != "" && (l.Zone == nil || l.Zone.Code != zoneCode) {
			continue
		}
		if warehouseCode != "" && (l.Zone == nil || l.Zone.Warehouse == nil || l.Zone.Warehouse.Code != warehouseCode) {
			continue
		}
		matched = append(matched, l)
	}
	switch len(matched) {
	case 0:
		return nil, fmt.Errorf("ячейка %s не найдена", code)
	case 1:
		return &matched[0], nil
	default:
		return nil, fmt.Errorf("код ячейки %s неоднозначен, укажите zone_code или warehouse_code", code)
	}
}

// maxReturnedRowErrors caps the row errors sent back to the client; the
// import log keeps all of them.
const maxReturnedRowErrors = 50

func startImport(ctx context.Context, logs repository.ImportLogRepository, filename, kind string, total int) *model.ImportLog {
	if logs == nil {
		return nil
	}
	entry := &model.ImportLog{
		Filename:  filename,
		Type:      kind,
		Status:    model.ImportProcessing,
		TotalRows: total,
		StartedAt: time.Now().UTC(),
	}
	if err := logs.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("type", kind).Msg("import log: create failed")
		return nil
	}
	return entry
}

func finishImport(ctx context.Context, logs repository.ImportLogRepository, entry *model.ImportLog, success int, rowErrs []model.ImportRowError) {
	if logs == nil || entry == nil {
		return
	}
	entry.SuccessRows = success
	entry.ErrorRows = len(rowErrs)
	entry.Status = model.ImportCompleted
	if success == 0 && len(rowErrs) > 0 {
		entry.Status = model.ImportFailed
	}
	if len(rowErrs) > 0 {
		if raw, err := json.Marshal(rowErrs); err == nil {
			entry.Errors = datatypes.JSON(raw)
		}
	}
	done := time.Now().UTC()
	entry.CompletedAt = &done
	if err := logs.Update(ctx, entry); err != nil {
		log.Warn().Err(err).Str("import_id", entry.ID.String()).Msg("import log: update failed")
	}
}

func firstRowErrors(errs []model.ImportRowError) []model.ImportRowError {
	if len(errs) > maxReturnedRowErrors {
		return errs[:maxReturnedRowErrors]
	}
	if errs == nil {
		return []model.ImportRowError{}
	}
	return errs
}
