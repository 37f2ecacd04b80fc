package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/aggregation"
	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/OskolkovOleg/sklad-monitoring/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func fp(v float64) *float64 { return &v }

// ── AggregationRepository stub ───────────────────────────────────────────────

type aggKey struct {
	t  model.EntityType
	id uuid.UUID
}

type stubAggRepo struct {
	rows      map[aggKey]model.Aggregation
	upsertErr error
}

func newStubAggRepo() *stubAggRepo { return &stubAggRepo{rows: make(map[aggKey]model.Aggregation)} }

func (r *stubAggRepo) Upsert(_ context.Context, a *model.Aggregation) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	k := aggKey{a.EntityType, a.EntityID}
	if old, ok := r.rows[k]; ok {
		a.ID = old.ID
	} else if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.rows[k] = *a
	return nil
}

func (r *stubAggRepo) DeleteStale(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for k, a := range r.rows {
		if a.CalculatedAt.Before(before) {
			delete(r.rows, k)
			n++
		}
	}
	return n, nil
}

func (r *stubAggRepo) sorted(keep func(model.Aggregation) bool) []model.Aggregation {
	var out []model.Aggregation
	for _, a := range r.rows {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityCode < out[j].EntityCode })
	return out
}

func (r *stubAggRepo) ListByType(_ context.Context, t model.EntityType) ([]model.Aggregation, error) {
	return r.sorted(func(a model.Aggregation) bool { return a.EntityType == t }), nil
}

func (r *stubAggRepo) FindByEntity(_ context.Context, t model.EntityType, id uuid.UUID) (*model.Aggregation, error) {
	a, ok := r.rows[aggKey{t, id}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r *stubAggRepo) ListByStatuses(_ context.Context, t model.EntityType, statuses []model.Status) ([]model.Aggregation, error) {
	return r.sorted(func(a model.Aggregation) bool {
		if t != "" && a.EntityType != t {
			return false
		}
		for _, s := range statuses {
			if a.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (r *stubAggRepo) LatestCalculatedAt(_ context.Context) (*time.Time, error) {
	var latest *time.Time
	for _, a := range r.rows {
		if latest == nil || a.CalculatedAt.After(*latest) {
			at := a.CalculatedAt
			latest = &at
		}
	}
	return latest, nil
}

// ── SourceReader stub ────────────────────────────────────────────────────────

type stubSource struct {
	src aggregation.Source
	err error
}

func (s *stubSource) Load(context.Context) (aggregation.Source, error) { return s.src, s.err }

// ── InventoryRepository stub ─────────────────────────────────────────────────

type stubInventoryRepo struct {
	rows     []model.Inventory
	skuScope []uuid.UUID
	scopes   []repository.InventoryScope
}

func (r *stubInventoryRepo) List(_ context.Context, _ dto.InventoryFilter) ([]model.Inventory, int64, error) {
	return r.rows, int64(len(r.rows)), nil
}

func (r *stubInventoryRepo) FindByKey(_ context.Context, skuID, locationID uuid.UUID, batch *string) (*model.Inventory, error) {
	for i := range r.rows {
		inv := r.rows[i]
		if inv.SKUID != skuID || inv.LocationID != locationID {
			continue
		}
		if (batch == nil && inv.BatchNumber == nil) || (batch != nil && inv.BatchNumber != nil && *batch == *inv.BatchNumber) {
			return &inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubInventoryRepo) Save(_ context.Context, inv *model.Inventory) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if inv.Status == "" {
		inv.Status = model.InventoryAvailable
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
		r.rows = append(r.rows, *inv)
		return nil
	}
	for i := range r.rows {
		if r.rows[i].ID == inv.ID {
			r.rows[i] = *inv
			return nil
		}
	}
	r.rows = append(r.rows, *inv)
	return nil
}

func (r *stubInventoryRepo) SaveAll(ctx context.Context, rows []model.Inventory) error {
	for i := range rows {
		if err := r.Save(ctx, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *stubInventoryRepo) ListAll(context.Context) ([]model.Inventory, error) {
	out := make([]model.Inventory, len(r.rows))
	copy(out, r.rows)
	return out, nil
}

func (r *stubInventoryRepo) ListInScope(_ context.Context, scope repository.InventoryScope) ([]model.Inventory, error) {
	r.scopes = append(r.scopes, scope)
	var out []model.Inventory
	for _, inv := range r.rows {
		if scope.LocationID == nil || inv.LocationID == *scope.LocationID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *stubInventoryRepo) ListBySKU(_ context.Context, skuID uuid.UUID) ([]model.Inventory, error) {
	var out []model.Inventory
	for _, inv := range r.rows {
		if inv.SKUID == skuID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *stubInventoryRepo) SKUIDsInScope(_ context.Context, scope repository.InventoryScope) ([]uuid.UUID, error) {
	r.scopes = append(r.scopes, scope)
	return r.skuScope, nil
}

func (r *stubInventoryRepo) LastUpdated(context.Context, repository.InventoryScope) (*time.Time, error) {
	var latest *time.Time
	for _, inv := range r.rows {
		if latest == nil || inv.LastUpdated.After(*latest) {
			at := inv.LastUpdated
			latest = &at
		}
	}
	return latest, nil
}

// ── NormRepository stub ──────────────────────────────────────────────────────

type stubNormRepo struct{ norms map[uuid.UUID]*model.Norm }

func newStubNormRepo() *stubNormRepo { return &stubNormRepo{norms: make(map[uuid.UUID]*model.Norm)} }

func (r *stubNormRepo) Upsert(_ context.Context, n *model.Norm) error {
	if err := n.Validate(nil); err != nil {
		return err
	}
	for _, existing := range r.norms {
		if existing.EntityType == n.EntityType && existing.EntityID == n.EntityID {
			n.ID = existing.ID
			*existing = *n
			return nil
		}
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	cp := *n
	r.norms[n.ID] = &cp
	return nil
}

func (r *stubNormRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Norm, error) {
	n, ok := r.norms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return n, nil
}

func (r *stubNormRepo) FindByEntity(_ context.Context, t model.NormEntityType, id uuid.UUID) (*model.Norm, error) {
	for _, n := range r.norms {
		if n.EntityType == t && n.EntityID == id {
			return n, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubNormRepo) List(_ context.Context, t model.NormEntityType) ([]model.Norm, error) {
	var out []model.Norm
	for _, n := range r.norms {
		if t == "" || n.EntityType == t {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *stubNormRepo) MapByEntity(_ context.Context, t model.NormEntityType, ids []uuid.UUID) (map[uuid.UUID]model.Norm, error) {
	out := make(map[uuid.UUID]model.Norm)
	for _, id := range ids {
		for _, n := range r.norms {
			if n.EntityType == t && n.EntityID == id {
				out[id] = *n
			}
		}
	}
	return out, nil
}

func (r *stubNormRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.norms[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.norms, id)
	return nil
}

// ── SKURepository stub ───────────────────────────────────────────────────────

type stubSKURepo struct{ skus map[uuid.UUID]*model.SKU }

func newStubSKURepo(skus ...model.SKU) *stubSKURepo {
	r := &stubSKURepo{skus: make(map[uuid.UUID]*model.SKU)}
	for i := range skus {
		s := skus[i]
		r.skus[s.ID] = &s
	}
	return r
}

func (r *stubSKURepo) Create(_ context.Context, s *model.SKU) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.skus[s.ID] = s
	return nil
}

func (r *stubSKURepo) FindByID(_ context.Context, id uuid.UUID) (*model.SKU, error) {
	s, ok := r.skus[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSKURepo) FindByCode(_ context.Context, code string) (*model.SKU, error) {
	for _, s := range r.skus {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSKURepo) List(_ context.Context, _ dto.SKUFilter) ([]model.SKU, int64, error) {
	var out []model.SKU
	for _, s := range r.skus {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSKURepo) Update(_ context.Context, s *model.SKU) error {
	r.skus[s.ID] = s
	return nil
}

func (r *stubSKURepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s, ok := r.skus[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Active = active
	return nil
}

// ── StructureRepository stub ─────────────────────────────────────────────────

type stubStructureRepo struct {
	locations []model.Location
	synced    [][]model.Warehouse
}

func (r *stubStructureRepo) Sync(_ context.Context, warehouses []model.Warehouse) error {
	r.synced = append(r.synced, warehouses)
	return nil
}

func (r *stubStructureRepo) ListTree(context.Context, bool) ([]model.Warehouse, error) {
	return nil, nil
}

func (r *stubStructureRepo) SetActive(_ context.Context, _ model.EntityType, id uuid.UUID, active bool) error {
	for i := range r.locations {
		if r.locations[i].ID == id {
			r.locations[i].Active = active
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubStructureRepo) FindLocationByID(_ context.Context, id uuid.UUID) (*model.Location, error) {
	for i := range r.locations {
		if r.locations[i].ID == id {
			l := r.locations[i]
			return &l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubStructureRepo) FindLocationsByCode(_ context.Context, code string) ([]model.Location, error) {
	var out []model.Location
	for _, l := range r.locations {
		if l.Code == code {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *stubStructureRepo) ListActiveLocations(context.Context) ([]model.Location, error) {
	var out []model.Location
	for _, l := range r.locations {
		if l.Active {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *stubStructureRepo) UpdateCapacity(_ context.Context, id uuid.UUID, capacity *float64) error {
	for i := range r.locations {
		if r.locations[i].ID == id {
			r.locations[i].Capacity = capacity
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Log / settings stubs ─────────────────────────────────────────────────────

type stubImportLogRepo struct{ logs []*model.ImportLog }

func (r *stubImportLogRepo) Create(_ context.Context, l *model.ImportLog) error {
	l.ID = uuid.New()
	r.logs = append(r.logs, l)
	return nil
}

func (r *stubImportLogRepo) Update(context.Context, *model.ImportLog) error { return nil }

func (r *stubImportLogRepo) List(_ context.Context, limit int) ([]model.ImportLog, error) {
	var out []model.ImportLog
	for _, l := range r.logs {
		out = append(out, *l)
	}
	return out, nil
}

type stubExportRepo struct{ exports []model.ReportExport }

func (r *stubExportRepo) Create(_ context.Context, e *model.ReportExport) error {
	e.ID = uuid.New()
	r.exports = append(r.exports, *e)
	return nil
}

func (r *stubExportRepo) List(context.Context, int) ([]model.ReportExport, error) {
	return r.exports, nil
}

type stubSettingsRepo struct{ s *model.Settings }

func (r *stubSettingsRepo) Get(_ context.Context, defaults model.Settings) (*model.Settings, error) {
	if r.s == nil {
		r.s = &defaults
	}
	cp := *r.s
	return &cp, nil
}

func (r *stubSettingsRepo) Save(_ context.Context, s *model.Settings) error {
	cp := *s
	r.s = &cp
	return nil
}

// ── Queue / cache / recalc stubs ─────────────────────────────────────────────

type stubJobs struct {
	recalcs int
	digests []dto.AlertDigest
	err     error
}

func (j *stubJobs) EnqueueRecalculate(context.Context) error {
	if j.err != nil {
		return j.err
	}
	j.recalcs++
	return nil
}

func (j *stubJobs) EnqueueAlertDigest(_ context.Context, d dto.AlertDigest) error {
	if j.err != nil {
		return j.err
	}
	j.digests = append(j.digests, d)
	return nil
}

type stubCache struct {
	entries       map[string][]byte
	invalidations int
}

func newStubCache() *stubCache { return &stubCache{entries: make(map[string][]byte)} }

func (c *stubCache) Get(_ context.Context, name string, dest any) bool {
	raw, ok := c.entries[name]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *stubCache) Set(_ context.Context, name string, v any) {
	raw, _ := json.Marshal(v)
	c.entries[name] = raw
}

func (c *stubCache) Invalidate(context.Context) {
	c.entries = make(map[string][]byte)
	c.invalidations++
}

type stubRecalc struct {
	calls int
	err   error
}

func (r *stubRecalc) RecalculateAll(context.Context) (*dto.RecalculateResponse, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &dto.RecalculateResponse{CalculatedAt: time.Now().UTC()}, nil
}
