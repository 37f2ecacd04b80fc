package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/aggregation"
	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Fixture ──────────────────────────────────────────────────────────────────

type aggFixture struct {
	src                 aggregation.Source
	wh, zone, low, full uuid.UUID
	skuLow, skuFull     uuid.UUID
}

// newAggFixture builds one warehouse with two locations of capacity 100: one
// at 10% fill (red) and one at 90% (green).
func newAggFixture() *aggFixture {
	fx := &aggFixture{
		wh: uuid.New(), zone: uuid.New(), low: uuid.New(), full: uuid.New(),
		skuLow: uuid.New(), skuFull: uuid.New(),
	}
	fx.src = aggregation.Source{
		Warehouses: []model.Warehouse{{ID: fx.wh, Code: "WH-1", Name: "Основной", Active: true}},
		Zones:      []model.Zone{{ID: fx.zone, WarehouseID: fx.wh, Code: "A", Name: "Зона A", Active: true}},
		Locations: []model.Location{
			{ID: fx.low, ZoneID: fx.zone, Code: "A-01", Name: "A-01", Capacity: fp(100), Active: true},
			{ID: fx.full, ZoneID: fx.zone, Code: "A-02", Name: "A-02", Capacity: fp(100), Active: true},
		},
		SKUs: []model.SKU{
			{ID: fx.skuLow, Code: "S-1", Name: "Болт", Unit: "шт", Active: true},
			{ID: fx.skuFull, Code: "S-2", Name: "Гайка", Unit: "шт", Active: true},
		},
		Inventory: []model.Inventory{
			{ID: uuid.New(), SKUID: fx.skuLow, LocationID: fx.low, Quantity: 10, Status: model.InventoryAvailable},
			{ID: uuid.New(), SKUID: fx.skuFull, LocationID: fx.full, Quantity: 90, Status: model.InventoryAvailable},
		},
	}
	return fx
}

type aggHarness struct {
	svc      *aggregationService
	repo     *stubAggRepo
	source   *stubSource
	inv      *stubInventoryRepo
	norms    *stubNormRepo
	settings *stubSettingsRepo
	cache    *stubCache
	jobs     *stubJobs
}

func newAggHarness(fx *aggFixture) *aggHarness {
	h := &aggHarness{
		repo:     newStubAggRepo(),
		source:   &stubSource{src: fx.src},
		inv:      &stubInventoryRepo{rows: fx.src.Inventory},
		norms:    newStubNormRepo(),
		settings: &stubSettingsRepo{},
		cache:    newStubCache(),
		jobs:     &stubJobs{},
	}
	h.svc = NewAggregationService(h.repo, h.source, h.inv, h.norms, h.settings, h.cache, h.jobs, "Склад").(*aggregationService)
	return h
}

// ── Recompute ────────────────────────────────────────────────────────────────

func TestRecalculateAll_WritesEveryLevel(t *testing.T) {
	h := newAggHarness(newAggFixture())

	resp, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Warehouses)
	assert.Equal(t, 1, resp.Zones)
	assert.Equal(t, 2, resp.Locations)
	assert.Equal(t, 2, resp.SKUs)
	assert.Len(t, h.repo.rows, 6)
	assert.Equal(t, 1, h.cache.invalidations)

	wh := h.repo.rows[aggKey{model.EntityWarehouse, h.source.src.Warehouses[0].ID}]
	assert.Equal(t, 100.0, wh.TotalQuantity)
	require.NotNil(t, wh.Capacity)
	assert.Equal(t, 200.0, *wh.Capacity)
}

func TestRecalculateAll_PrunesRowsOfRemovedEntities(t *testing.T) {
	fx := newAggFixture()
	h := newAggHarness(fx)
	h.svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	_, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)

	h.source.src.Locations[1].Active = false
	h.svc.now = func() time.Time { return time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC) }
	resp, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.Pruned)
	_, ok := h.repo.rows[aggKey{model.EntityLocation, fx.full}]
	assert.False(t, ok)
	sku := h.repo.rows[aggKey{model.EntitySKU, fx.skuFull}]
	assert.Equal(t, 90.0, sku.TotalQuantity, "SKU totals keep stock held at disabled locations")
	wh := h.repo.rows[aggKey{model.EntityWarehouse, fx.wh}]
	assert.Equal(t, 10.0, wh.TotalQuantity)
}

func TestRecalculateAll_KeepsRowIDsAcrossRuns(t *testing.T) {
	fx := newAggFixture()
	h := newAggHarness(fx)
	_, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	first := h.repo.rows[aggKey{model.EntityLocation, fx.low}].ID

	_, err = h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, h.repo.rows[aggKey{model.EntityLocation, fx.low}].ID)
	assert.Len(t, h.repo.rows, 6)
}

func TestRecalculateAll_FailureMarksReadsStale(t *testing.T) {
	h := newAggHarness(newAggFixture())
	_, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)

	h.source.err = errors.New("connection refused")
	_, err = h.svc.RecalculateAll(context.Background())
	require.Error(t, err)

	page, err := h.svc.Query(context.Background(), dto.AggregationQuery{
		EntityType: "location", SortField: "entityName", SortOrder: "asc", Page: 1, PageSize: 100,
	})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2, "last good rows are still served")
	assert.True(t, page.Stale)
	require.NotNil(t, page.LastError)
	assert.Contains(t, *page.LastError, "connection refused")

	h.source.err = nil
	_, err = h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	page, err = h.svc.Query(context.Background(), dto.AggregationQuery{
		EntityType: "location", SortField: "entityName", SortOrder: "asc", Page: 1, PageSize: 100,
	})
	require.NoError(t, err)
	assert.False(t, page.Stale)
	assert.Nil(t, page.LastError)
}

func TestRecalculateAll_UpsertFailureIsReported(t *testing.T) {
	h := newAggHarness(newAggFixture())
	h.repo.upsertErr = errors.New("disk full")

	_, err := h.svc.RecalculateAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, h.cache.invalidations)
}

// ── Alert digest ─────────────────────────────────────────────────────────────

func TestRecalculateAll_EnqueuesDigestOncePerAlertSet(t *testing.T) {
	h := newAggHarness(newAggFixture())
	st := model.DefaultSettings("Склад")
	st.AlertEmail = ptr("ops@example.com")
	h.settings.s = &st

	_, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, h.jobs.digests, 1)

	d := h.jobs.digests[0]
	assert.Equal(t, []string{"ops@example.com"}, d.To)
	require.NotEmpty(t, d.Alerts)
	assert.Equal(t, AlertHigh, d.Alerts[0].Severity)

	_, err = h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.jobs.digests, 1, "unchanged alert set is not re-sent")
}

func TestRecalculateAll_RetriesDigestAfterEnqueueFailure(t *testing.T) {
	h := newAggHarness(newAggFixture())
	st := model.DefaultSettings("Склад")
	st.AlertEmail = ptr("ops@example.com")
	h.settings.s = &st

	h.jobs.err = errors.New("redis: connection refused")
	_, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, h.jobs.digests)

	h.jobs.err = nil
	_, err = h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.jobs.digests, 1, "same alert set is sent once the queue is back")

	_, err = h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.jobs.digests, 1)
}

func TestRecalculateAll_NoDigestWithoutAlertEmail(t *testing.T) {
	h := newAggHarness(newAggFixture())

	_, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, h.jobs.digests)
}

// ── Trigger ──────────────────────────────────────────────────────────────────

func TestTrigger_AsyncEnqueues(t *testing.T) {
	h := newAggHarness(newAggFixture())

	resp, err := h.svc.Trigger(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, resp.Queued)
	assert.Equal(t, 1, h.jobs.recalcs)
	assert.Empty(t, h.repo.rows)
}

func TestTrigger_AsyncWithoutQueue(t *testing.T) {
	fx := newAggFixture()
	h := newAggHarness(fx)
	svc := NewAggregationService(h.repo, h.source, h.inv, h.norms, h.settings, nil, nil, "Склад")

	_, err := svc.Trigger(context.Background(), true)
	assert.ErrorIs(t, err, ErrQueueUnavailable)

	resp, err := svc.Trigger(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, resp.Queued)
	assert.Equal(t, 2, resp.Locations)
}

// ── Reads ────────────────────────────────────────────────────────────────────

func TestQuery_ServesFromCacheUntilInvalidated(t *testing.T) {
	h := newAggHarness(newAggFixture())
	_, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)

	q := dto.AggregationQuery{EntityType: "location", SortField: "fillPercentage", SortOrder: "desc", Page: 1, PageSize: 100}
	page, err := h.svc.Query(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "A-02", page.Data[0].EntityCode)
	assert.Len(t, h.cache.entries, 1)

	h.repo.rows = map[aggKey]model.Aggregation{}
	page, err = h.svc.Query(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2, "cached page")
}

func TestQuery_SKUScopeUsesStockLocations(t *testing.T) {
	fx := newAggFixture()
	h := newAggHarness(fx)
	_, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	h.inv.skuScope = []uuid.UUID{fx.skuFull}

	page, err := h.svc.Query(context.Background(), dto.AggregationQuery{
		EntityType: "sku", ZoneID: fx.zone.String(),
		SortField: "entityName", SortOrder: "asc", Page: 1, PageSize: 100,
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "S-2", page.Data[0].EntityCode)
	require.Len(t, h.inv.scopes, 1)
	require.NotNil(t, h.inv.scopes[0].ZoneID)
	assert.Equal(t, fx.zone, *h.inv.scopes[0].ZoneID)
}

func TestQuery_InvalidWarehouseList(t *testing.T) {
	h := newAggHarness(newAggFixture())

	_, err := h.svc.Query(context.Background(), dto.AggregationQuery{
		EntityType: "zone", WarehouseID: "not-a-uuid",
		SortField: "entityName", SortOrder: "asc", Page: 1, PageSize: 100,
	})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestSelect_ReturnsAllMatchesSorted(t *testing.T) {
	h := newAggHarness(newAggFixture())
	_, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)

	rows, err := h.svc.Select(context.Background(), dto.AggregationQuery{
		EntityType: "location", Status: "red", SortField: "entityName", SortOrder: "asc", Page: 1, PageSize: 1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A-01", rows[0].EntityCode)
}

func TestDetails_LocationListsContributorsAndProblems(t *testing.T) {
	fx := newAggFixture()
	h := newAggHarness(fx)
	_, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	require.NoError(t, h.norms.Upsert(context.Background(), &model.Norm{
		EntityType: model.NormSKU, EntityID: fx.skuLow, MinLevel: fp(50), TargetLevel: fp(80),
	}))

	d, err := h.svc.Details(context.Background(), model.EntityLocation, fx.low)
	require.NoError(t, err)
	assert.Equal(t, "A-01", d.EntityCode)
	require.Len(t, d.TopItems, 1)
	assert.Equal(t, fx.skuLow.String(), d.TopItems[0].ID)
	assert.Equal(t, 100.0, d.TopItems[0].Percentage)
	require.Len(t, d.ProblemItems, 1)
	assert.Equal(t, string(aggregation.SeverityCritical), d.ProblemItems[0].Severity)
	assert.Equal(t, 40.0, d.ProblemItems[0].Shortfall)
}

func TestDetails_NotFound(t *testing.T) {
	h := newAggHarness(newAggFixture())

	_, err := h.svc.Details(context.Background(), model.EntityZone, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.svc.Details(context.Background(), model.EntityType("shelf"), uuid.New())
	assert.ErrorIs(t, err, ErrInvalidEntityType)
}

func TestBars_ZoneLevelNeedsParent(t *testing.T) {
	fx := newAggFixture()
	h := newAggHarness(fx)
	_, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)

	_, err = h.svc.Bars(context.Background(), dto.BarsQuery{Level: "zone"})
	assert.ErrorIs(t, err, ErrParentRequired)

	bars, err := h.svc.Bars(context.Background(), dto.BarsQuery{Level: "location", ParentID: fx.zone.String()})
	require.NoError(t, err)
	require.Len(t, bars.Data, 2)
	assert.Equal(t, 2, bars.Total)
	assert.Equal(t, "A-01", bars.Data[0].Code)
	assert.Equal(t, string(model.StatusRed), bars.Data[0].Status)
	assert.Equal(t, 10.0, bars.Data[0].Value)
}

func TestBars_PagesLargeLevels(t *testing.T) {
	fx := newAggFixture()
	h := newAggHarness(fx)
	_, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)

	first, err := h.svc.Bars(context.Background(), dto.BarsQuery{Level: "sku", Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, 2, first.TotalPages)
	require.Len(t, first.Data, 1)

	second, err := h.svc.Bars(context.Background(), dto.BarsQuery{Level: "sku", Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, second.Data, 1)
	assert.NotEqual(t, first.Data[0].Code, second.Data[0].Code, "pages are cached separately")
}
