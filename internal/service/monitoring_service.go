package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/OskolkovOleg/sklad-monitoring/internal/aggregation"
	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/OskolkovOleg/sklad-monitoring/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonitoringService derives dashboard KPIs and alerts from the aggregation
// cache; it never re-classifies source data.
type MonitoringService interface {
	KPI(ctx context.Context, q dto.KPIQuery) (*dto.KPIResponse, error)
	Alerts(ctx context.Context, limit int) ([]dto.AlertResponse, error)
}

type monitoringService struct {
	repo      repository.AggregationRepository
	inventory repository.InventoryRepository
}

func NewMonitoringService(repo repository.AggregationRepository, inventory repository.InventoryRepository) MonitoringService {
	return &monitoringService{repo: repo, inventory: inventory}
}

func (s *monitoringService) KPI(ctx context.Context, q dto.KPIQuery) (*dto.KPIResponse, error) {
	var filter aggregation.FilterSpec
	var scope repository.InventoryScope
	if q.WarehouseID != "" {
		id, err := uuid.Parse(q.WarehouseID)
		if err != nil {
			return nil, fmt.Errorf("%w: warehouseId: %v", ErrInvalidQuery, err)
		}
		filter.WarehouseIDs = []uuid.UUID{id}
		scope.WarehouseIDs = filter.WarehouseIDs
	}
	if q.ZoneID != "" {
		id, err := uuid.Parse(q.ZoneID)
		if err != nil {
			return nil, fmt.Errorf("%w: zoneId: %v", ErrInvalidQuery, err)
		}
		filter.ZoneID = &id
		scope.ZoneID = &id
	}

	rows, err := s.repo.ListByType(ctx, model.EntityLocation)
	if err != nil {
		return nil, fmt.Errorf("kpi: %w", err)
	}

	out := &dto.KPIResponse{}
	var available float64
	for i := range rows {
		a := &rows[i]
		if !filter.Match(a) {
			continue
		}
		out.TotalPositions++
		switch a.Status {
		case model.StatusGreen:
			out.GreenCount++
		case model.StatusYellow:
			out.YellowCount++
		case model.StatusRed:
			out.RedCount++
		default:
			out.GrayCount++
		}
		out.TotalQuantity += a.TotalQuantity
		available += a.AvailableQuantity
		if a.Capacity != nil {
			out.TotalCapacity += *a.Capacity
		}
	}

	if fill := aggregation.FillPercentage(out.TotalQuantity, &out.TotalCapacity); fill != nil {
		out.AvgFillPercentage = *fill
	}
	if out.TotalQuantity > 0 {
		out.UtilizationRate = aggregation.FillPercentageOf(available, out.TotalQuantity)
	}
	out.TotalQuantity = aggregation.Round2(decimal.NewFromFloat(out.TotalQuantity))
	out.TotalCapacity = aggregation.Round2(decimal.NewFromFloat(out.TotalCapacity))

	last, err := s.inventory.LastUpdated(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("kpi last update: %w", err)
	}
	out.LastUpdate = last
	return out, nil
}

func (s *monitoringService) Alerts(ctx context.Context, limit int) ([]dto.AlertResponse, error) {
	rows, err := s.repo.ListByStatuses(ctx, "", []model.Status{model.StatusRed, model.StatusYellow})
	if err != nil {
		return nil, fmt.Errorf("alerts: %w", err)
	}
	out := make([]dto.AlertResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, mapAlert(a))
	}
	sort.SliceStable(out, func(i, j int) bool { return severityRank(out[i].Severity) < severityRank(out[j].Severity) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

const (
	AlertHigh   = "high"
	AlertMedium = "medium"
)

func severityRank(s string) int {
	if s == AlertHigh {
		return 0
	}
	return 1
}

// mapAlert turns a red or yellow aggregation into an alert line.
func mapAlert(a model.Aggregation) dto.AlertResponse {
	alert := dto.AlertResponse{
		ID:             a.ID.String(),
		EntityType:     string(a.EntityType),
		EntityID:       a.EntityID.String(),
		EntityCode:     a.EntityCode,
		EntityName:     a.EntityName,
		Status:         string(a.Status),
		TotalQuantity:  a.TotalQuantity,
		FillPercentage: a.FillPercentage,
		CalculatedAt:   a.CalculatedAt,
	}
	if a.Status == model.StatusRed {
		alert.Severity = AlertHigh
		switch {
		case a.MinLevel != nil && *a.MinLevel > 0 && a.TotalQuantity < *a.MinLevel:
			deficit := math.Round((*a.MinLevel - a.TotalQuantity) / *a.MinLevel * 100)
			alert.Message = fmt.Sprintf("%s: остаток ниже минимального уровня на %.0f%%", a.EntityName, deficit)
		case a.FillPercentage != nil:
			alert.Message = fmt.Sprintf("%s: заполненность %.0f%% ниже допустимой", a.EntityName, math.Round(*a.FillPercentage))
		default:
			alert.Message = fmt.Sprintf("%s: остаток ниже минимального уровня", a.EntityName)
		}
		return alert
	}

	alert.Severity = AlertMedium
	if a.FillPercentage != nil && *a.FillPercentage > 90 {
		alert.Message = fmt.Sprintf("%s: заполненность превысила %.0f%%", a.EntityName, math.Round(*a.FillPercentage))
	} else {
		alert.Message = fmt.Sprintf("%s: требует внимания (между min и target)", a.EntityName)
	}
	return alert
}
