package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/aggregation"
	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/OskolkovOleg/sklad-monitoring/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// maxDigestAlerts caps the number of rows in one alert e-mail.
const maxDigestAlerts = 50

// AggregationService owns the aggregation cache: full recomputes and every
// read served from it.
type AggregationService interface {
	Recalculator
	// Trigger recomputes synchronously, or enqueues a recompute job when
	// async is set.
	Trigger(ctx context.Context, async bool) (*dto.RecalculateResponse, error)
	Query(ctx context.Context, q dto.AggregationQuery) (*dto.AggregationPage, error)
	// Select returns every row matching q, sorted, without pagination.
	Select(ctx context.Context, q dto.AggregationQuery) ([]model.Aggregation, error)
	Details(ctx context.Context, t model.EntityType, id uuid.UUID) (*dto.AggregationDetails, error)
	Bars(ctx context.Context, q dto.BarsQuery) (*dto.BarsPage, error)
}

type aggregationService struct {
	repo      repository.AggregationRepository
	source    repository.SourceReader
	inventory repository.InventoryRepository
	norms     repository.NormRepository
	settings  repository.SettingsRepository
	cache     QueryCache
	jobs      JobQueue

	companyName string
	now         func() time.Time

	// mu serialises recomputes inside the process.
	mu sync.Mutex

	stateMu      sync.RWMutex
	lastErr      string
	lastAlertKey string
}

func NewAggregationService(
	repo repository.AggregationRepository,
	source repository.SourceReader,
	inventory repository.InventoryRepository,
	norms repository.NormRepository,
	settings repository.SettingsRepository,
	cache QueryCache,
	jobs JobQueue,
	companyName string,
) AggregationService {
	if cache == nil {
		cache = noopCache{}
	}
	return &aggregationService{
		repo:        repo,
		source:      source,
		inventory:   inventory,
		norms:       norms,
		settings:    settings,
		cache:       cache,
		jobs:        jobs,
		companyName: companyName,
		now:         time.Now,
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, any) bool { return false }
func (noopCache) Set(context.Context, string, any)      {}
func (noopCache) Invalidate(context.Context)            {}

// ── Recompute ────────────────────────────────────────────────────────────────

func (s *aggregationService) RecalculateAll(ctx context.Context) (*dto.RecalculateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	src, err := s.source.Load(ctx)
	if err != nil {
		return nil, s.fail(fmt.Errorf("recalculate: %w", err))
	}

	// Postgres keeps microseconds; the prune below compares against stored values.
	snap := aggregation.Rollup(src, s.now().UTC().Truncate(time.Microsecond))

	for i := range snap.Rows {
		if err := s.repo.Upsert(ctx, &snap.Rows[i]); err != nil {
			row := snap.Rows[i]
			return nil, s.fail(fmt.Errorf("recalculate: upsert %s %s: %w", row.EntityType, row.EntityCode, err))
		}
	}
	pruned, err := s.repo.DeleteStale(ctx, snap.CalculatedAt)
	if err != nil {
		return nil, s.fail(fmt.Errorf("recalculate: prune: %w", err))
	}

	s.cache.Invalidate(ctx)
	s.setLastError("")

	resp := &dto.RecalculateResponse{
		CalculatedAt: snap.CalculatedAt,
		Warehouses:   snap.Count(model.EntityWarehouse),
		Zones:        snap.Count(model.EntityZone),
		Locations:    snap.Count(model.EntityLocation),
		SKUs:         snap.Count(model.EntitySKU),
		Pruned:       pruned,
		DurationMs:   time.Since(start).Milliseconds(),
	}
	log.Info().
		Int("rows", len(snap.Rows)).
		Int64("pruned", pruned).
		Int64("duration_ms", resp.DurationMs).
		Msg("aggregations recalculated")

	s.notify(ctx, snap)
	return resp, nil
}

func (s *aggregationService) Trigger(ctx context.Context, async bool) (*dto.RecalculateResponse, error) {
	if !async {
		return s.RecalculateAll(ctx)
	}
	if s.jobs == nil {
		return nil, ErrQueueUnavailable
	}
	if err := s.jobs.EnqueueRecalculate(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return &dto.RecalculateResponse{Queued: true}, nil
}

func (s *aggregationService) fail(err error) error {
	log.Error().Err(err).Msg("aggregation recompute failed")
	s.setLastError(err.Error())
	return err
}

func (s *aggregationService) setLastError(msg string) {
	s.stateMu.Lock()
	s.lastErr = msg
	s.stateMu.Unlock()
}

func (s *aggregationService) lastError() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.lastErr
}

// notify enqueues an alert digest when alerting is enabled and the set of
// alerting entities changed since the last digest.
func (s *aggregationService) notify(ctx context.Context, snap aggregation.Snapshot) {
	if s.jobs == nil || s.settings == nil {
		return
	}
	st, err := s.settings.Get(ctx, model.DefaultSettings(s.companyName))
	if err != nil {
		log.Warn().Err(err).Msg("alert digest: settings unavailable")
		return
	}
	if !st.EmailNotifications || st.AlertEmail == nil || *st.AlertEmail == "" {
		return
	}

	var alerts []dto.AlertResponse
	var keys []string
	for _, row := range snap.Rows {
		if row.EntityType != model.EntityLocation && row.EntityType != model.EntitySKU {
			continue
		}
		if (row.Status == model.StatusRed && st.CriticalStockAlerts) ||
			(row.Status == model.StatusYellow && st.LowStockAlerts) {
			alerts = append(alerts, mapAlert(row))
			keys = append(keys, row.EntityID.String()+":"+string(row.Status))
		}
	}
	sort.Strings(keys)
	key := strings.Join(keys, ",")

	s.stateMu.Lock()
	unchanged := key == s.lastAlertKey
	if len(alerts) == 0 {
		s.lastAlertKey = key
	}
	s.stateMu.Unlock()
	if unchanged || len(alerts) == 0 {
		return
	}

	sort.SliceStable(alerts, func(i, j int) bool { return severityRank(alerts[i].Severity) < severityRank(alerts[j].Severity) })
	if len(alerts) > maxDigestAlerts {
		alerts = alerts[:maxDigestAlerts]
	}
	digest := dto.AlertDigest{
		To:          []string{*st.AlertEmail},
		CompanyName: st.CompanyName,
		GeneratedAt: snap.CalculatedAt,
		Alerts:      alerts,
	}
	if err := s.jobs.EnqueueAlertDigest(ctx, digest); err != nil {
		// key stays unset so the next recompute retries the same alert set
		log.Warn().Err(err).Msg("alert digest: enqueue failed")
		return
	}
	s.stateMu.Lock()
	s.lastAlertKey = key
	s.stateMu.Unlock()
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *aggregationService) Query(ctx context.Context, q dto.AggregationQuery) (*dto.AggregationPage, error) {
	filter, sortSpec, pageSpec, scope, err := q.Specs()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	cacheKey := "list:" + q.CacheKey()
	var page dto.AggregationPage
	if !s.cache.Get(ctx, cacheKey, &page) {
		rows, err := s.repo.ListByType(ctx, filter.EntityType)
		if err != nil {
			return nil, fmt.Errorf("list aggregations: %w", err)
		}
		if err := s.resolveScope(ctx, &filter, scope); err != nil {
			return nil, err
		}

		result := aggregation.Query(rows, filter, sortSpec, pageSpec)
		page = dto.AggregationPage{
			Data:       make([]dto.AggregationResponse, 0, len(result.Data)),
			Total:      result.Total,
			Page:       result.Page,
			PageSize:   result.PageSize,
			TotalPages: result.TotalPages,
		}
		for _, a := range result.Data {
			page.Data = append(page.Data, mapAggregation(a))
		}
		s.cache.Set(ctx, cacheKey, page)
	}

	if msg := s.lastError(); msg != "" {
		page.Stale = true
		page.LastError = &msg
	}
	return &page, nil
}

func (s *aggregationService) Select(ctx context.Context, q dto.AggregationQuery) ([]model.Aggregation, error) {
	filter, sortSpec, _, scope, err := q.Specs()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	rows, err := s.repo.ListByType(ctx, filter.EntityType)
	if err != nil {
		return nil, fmt.Errorf("list aggregations: %w", err)
	}
	if err := s.resolveScope(ctx, &filter, scope); err != nil {
		return nil, err
	}
	out := make([]model.Aggregation, 0, len(rows))
	for i := range rows {
		if filter.Match(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	aggregation.Sort(out, sortSpec)
	return out, nil
}

// resolveScope turns the hierarchy scope into an entity id set for rows that
// do not carry ancestor ids: SKUs via their stock, locations by id.
func (s *aggregationService) resolveScope(ctx context.Context, f *aggregation.FilterSpec, scope dto.Scope) error {
	switch f.EntityType {
	case model.EntitySKU:
		if scope.Empty() {
			return nil
		}
		ids, err := s.inventory.SKUIDsInScope(ctx, repository.InventoryScope{
			WarehouseIDs: scope.WarehouseIDs,
			ZoneID:       scope.ZoneID,
			LocationID:   scope.LocationID,
		})
		if err != nil {
			return fmt.Errorf("resolve sku scope: %w", err)
		}
		f.EntityIDs = make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			f.EntityIDs[id] = struct{}{}
		}
		f.WarehouseIDs = nil
		f.ZoneID = nil
	case model.EntityLocation:
		if scope.LocationID != nil {
			f.EntityIDs = map[uuid.UUID]struct{}{*scope.LocationID: {}}
		}
	}
	return nil
}

func (s *aggregationService) Details(ctx context.Context, t model.EntityType, id uuid.UUID) (*dto.AggregationDetails, error) {
	if !t.Valid() {
		return nil, ErrInvalidEntityType
	}
	a, err := s.repo.FindByEntity(ctx, t, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	out := &dto.AggregationDetails{
		AggregationResponse: mapAggregation(*a),
		TopItems:            []dto.TopItemResponse{},
		ProblemItems:        []dto.ProblemItemResponse{},
	}

	if t == model.EntitySKU {
		rows, err := s.inventory.ListBySKU(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("sku details: %w", err)
		}
		items := aggregation.GroupInventory(rows, byLocation)
		for _, it := range aggregation.TopContributors(items, a.TotalQuantity, aggregation.DefaultTopN) {
			out.TopItems = append(out.TopItems, mapTopItem(it))
		}
		return out, nil
	}

	scope := repository.InventoryScope{}
	switch t {
	case model.EntityWarehouse:
		scope.WarehouseIDs = []uuid.UUID{id}
	case model.EntityZone:
		scope.ZoneID = &id
	case model.EntityLocation:
		scope.LocationID = &id
	}
	rows, err := s.inventory.ListInScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("details: %w", err)
	}
	items := aggregation.GroupInventory(rows, bySKU)
	for _, it := range aggregation.TopContributors(items, a.TotalQuantity, aggregation.DefaultTopN) {
		out.TopItems = append(out.TopItems, mapTopItem(it))
	}

	skuIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		skuIDs = append(skuIDs, it.ID)
	}
	norms, err := s.norms.MapByEntity(ctx, model.NormSKU, skuIDs)
	if err != nil {
		return nil, fmt.Errorf("details norms: %w", err)
	}
	for _, p := range aggregation.ProblemItems(items, norms, aggregation.DefaultTopN) {
		out.ProblemItems = append(out.ProblemItems, dto.ProblemItemResponse{
			ID:        p.ID.String(),
			Code:      p.Code,
			Name:      p.Name,
			Quantity:  p.Quantity,
			Threshold: p.Threshold,
			Shortfall: p.Shortfall,
			Severity:  string(p.Severity),
			Issue:     p.Issue,
		})
	}
	return out, nil
}

func bySKU(inv model.Inventory) aggregation.Contribution {
	c := aggregation.Contribution{ID: inv.SKUID}
	if inv.SKU != nil {
		c.Code, c.Name, c.Unit = inv.SKU.Code, inv.SKU.Name, inv.SKU.Unit
	}
	return c
}

func byLocation(inv model.Inventory) aggregation.Contribution {
	c := aggregation.Contribution{ID: inv.LocationID}
	if loc := inv.Location; loc != nil {
		c.Code, c.Name = loc.Code, loc.Name
		if loc.Unit != nil {
			c.Unit = *loc.Unit
		}
		if z := loc.Zone; z != nil {
			c.Name = z.Name + " / " + loc.Name
			if z.Warehouse != nil {
				c.Name = z.Warehouse.Name + " / " + c.Name
			}
		}
	}
	return c
}

func (s *aggregationService) Bars(ctx context.Context, q dto.BarsQuery) (*dto.BarsPage, error) {
	level := model.EntityType(q.Level)
	if !level.Valid() {
		return nil, ErrInvalidEntityType
	}
	filter := aggregation.FilterSpec{EntityType: level}
	if level == model.EntityZone || level == model.EntityLocation {
		if q.ParentID == "" {
			return nil, ErrParentRequired
		}
		parent, err := uuid.Parse(q.ParentID)
		if err != nil {
			return nil, fmt.Errorf("%w: parentId: %v", ErrInvalidQuery, err)
		}
		if level == model.EntityZone {
			filter.WarehouseIDs = []uuid.UUID{parent}
		} else {
			filter.ZoneID = &parent
		}
	}

	pageSpec := aggregation.PageSpec{Page: q.Page, PageSize: q.PageSize}.Normalize()
	cacheKey := fmt.Sprintf("bars:%s:%s:%d:%d", q.Level, q.ParentID, pageSpec.Page, pageSpec.PageSize)
	var out dto.BarsPage
	if s.cache.Get(ctx, cacheKey, &out) {
		return &out, nil
	}

	rows, err := s.repo.ListByType(ctx, level)
	if err != nil {
		return nil, fmt.Errorf("bars: %w", err)
	}
	page := aggregation.Query(rows, filter,
		aggregation.SortSpec{Field: aggregation.SortEntityName, Order: aggregation.SortAsc},
		pageSpec)

	out = dto.BarsPage{
		Data:       make([]dto.BarItem, 0, len(page.Data)),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
	for _, a := range page.Data {
		out.Data = append(out.Data, dto.BarItem{
			ID:             a.EntityID.String(),
			Code:           a.EntityCode,
			Name:           a.EntityName,
			EntityType:     string(a.EntityType),
			Value:          a.TotalQuantity,
			Capacity:       a.Capacity,
			FillPercentage: a.FillPercentage,
			Status:         string(a.Status),
		})
	}
	s.cache.Set(ctx, cacheKey, out)
	return &out, nil
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	return ptr(id.String())
}

func mapAggregation(a model.Aggregation) dto.AggregationResponse {
	return dto.AggregationResponse{
		ID:                a.ID.String(),
		EntityType:        string(a.EntityType),
		EntityID:          a.EntityID.String(),
		EntityCode:        a.EntityCode,
		EntityName:        a.EntityName,
		WarehouseID:       idString(a.WarehouseID),
		ZoneID:            idString(a.ZoneID),
		Category:          a.Category,
		Supplier:          a.Supplier,
		ABCClass:          a.ABCClass,
		TotalQuantity:     a.TotalQuantity,
		AvailableQuantity: a.AvailableQuantity,
		ReservedQuantity:  a.ReservedQuantity,
		Capacity:          a.Capacity,
		FillPercentage:    a.FillPercentage,
		MinLevel:          a.MinLevel,
		TargetLevel:       a.TargetLevel,
		MaxLevel:          a.MaxLevel,
		DeviationFromMin:  aggregation.DeviationFromMin(a.TotalQuantity, a.MinLevel),
		Status:            string(a.Status),
		CalculatedAt:      a.CalculatedAt,
	}
}

func mapTopItem(it aggregation.TopItem) dto.TopItemResponse {
	return dto.TopItemResponse{
		ID:         it.ID.String(),
		Code:       it.Code,
		Name:       it.Name,
		Unit:       it.Unit,
		Quantity:   it.Quantity,
		Percentage: it.Percentage,
	}
}
