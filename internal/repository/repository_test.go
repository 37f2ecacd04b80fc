package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/infra"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := infra.NewDatabase(infra.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func fp(v float64) *float64 { return &v }

// seedTree creates WH-1 / Z-1 / {L-1, L-2} and returns the location ids.
func seedTree(t *testing.T, db *gorm.DB) (uuid.UUID, uuid.UUID, []uuid.UUID) {
	t.Helper()
	repo := NewStructureRepository(db)
	err := repo.Sync(context.Background(), []model.Warehouse{{
		Code: "WH-1", Name: "Основной",
		Zones: []model.Zone{{
			Code: "Z-1", Name: "Зона A",
			Locations: []model.Location{
				{Code: "L-1", Name: "Ячейка 1", Capacity: fp(100)},
				{Code: "L-2", Name: "Ячейка 2"},
			},
		}},
	}})
	require.NoError(t, err)

	tree, err := repo.ListTree(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Zones, 1)
	zone := tree[0].Zones[0]
	require.Len(t, zone.Locations, 2)
	return tree[0].ID, zone.ID, []uuid.UUID{zone.Locations[0].ID, zone.Locations[1].ID}
}

func TestStructureRepo_SyncIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	whID, zoneID, locs := seedTree(t, db)
	repo := NewStructureRepository(db)

	// second sync renames and changes capacity but keeps ids
	err := repo.Sync(context.Background(), []model.Warehouse{{
		Code: "WH-1", Name: "Основной склад",
		Zones: []model.Zone{{Code: "Z-1", Name: "Зона A", Locations: []model.Location{
			{Code: "L-1", Name: "Ячейка 1", Capacity: fp(250)},
		}}},
	}})
	require.NoError(t, err)

	tree, err := repo.ListTree(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, whID, tree[0].ID)
	assert.Equal(t, "Основной склад", tree[0].Name)
	assert.Equal(t, zoneID, tree[0].Zones[0].ID)
	require.Len(t, tree[0].Zones[0].Locations, 2)

	loc, err := repo.FindLocationByID(context.Background(), locs[0])
	require.NoError(t, err)
	require.NotNil(t, loc.Capacity)
	assert.Equal(t, 250.0, *loc.Capacity)
	require.NotNil(t, loc.Zone)
	require.NotNil(t, loc.Zone.Warehouse)
	assert.Equal(t, "WH-1", loc.Zone.Warehouse.Code)
}

func TestStructureRepo_SetActive(t *testing.T) {
	db := setupTestDB(t)
	_, zoneID, _ := seedTree(t, db)
	repo := NewStructureRepository(db)

	require.NoError(t, repo.SetActive(context.Background(), model.EntityZone, zoneID, false))
	tree, err := repo.ListTree(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Empty(t, tree[0].Zones)

	err = repo.SetActive(context.Background(), model.EntityZone, uuid.New(), false)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestInventoryRepo_RejectsInvariantViolation(t *testing.T) {
	db := setupTestDB(t)
	_, _, locs := seedTree(t, db)
	sku := &model.SKU{Code: "SKU-1", Name: "Болт", Unit: "шт", Active: true}
	require.NoError(t, NewSKURepository(db).Create(context.Background(), sku))

	repo := NewInventoryRepository(db)
	bad := &model.Inventory{SKUID: sku.ID, LocationID: locs[0], Quantity: 5, ReservedQty: 4, UnavailableQty: 2}
	err := repo.Save(context.Background(), bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInventoryInvariant)

	good := &model.Inventory{SKUID: sku.ID, LocationID: locs[0], Quantity: 5, ReservedQty: 2}
	require.NoError(t, repo.Save(context.Background(), good))
	assert.Equal(t, model.InventoryAvailable, good.Status)

	found, err := repo.FindByKey(context.Background(), sku.ID, locs[0], nil)
	require.NoError(t, err)
	assert.Equal(t, good.ID, found.ID)
}

func TestListing_PagePastEndIsEmpty(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	_, _, locs := seedTree(t, db)
	skus := NewSKURepository(db)
	sku := &model.SKU{Code: "SKU-1", Name: "Болт", Unit: "шт", Active: true}
	require.NoError(t, skus.Create(ctx, sku))
	require.NoError(t, skus.Create(ctx, &model.SKU{Code: "SKU-2", Name: "Гайка", Unit: "шт", Active: true}))
	inv := NewInventoryRepository(db)
	require.NoError(t, inv.Save(ctx, &model.Inventory{SKUID: sku.ID, LocationID: locs[0], Quantity: 5}))

	for _, page := range []int{2, math.MaxInt} {
		list, total, err := skus.List(ctx, dto.SKUFilter{Page: page, Limit: 50})
		require.NoError(t, err)
		assert.Empty(t, list, "page %d", page)
		assert.EqualValues(t, 2, total)

		rows, total, err := inv.List(ctx, dto.InventoryFilter{Page: page, Limit: 50})
		require.NoError(t, err)
		assert.Empty(t, rows, "page %d", page)
		assert.EqualValues(t, 1, total)
	}

	list, _, err := skus.List(ctx, dto.SKUFilter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestInventoryRepo_Scope(t *testing.T) {
	db := setupTestDB(t)
	whID, zoneID, locs := seedTree(t, db)
	skus := NewSKURepository(db)
	a := &model.SKU{Code: "A", Name: "A", Unit: "шт", Active: true}
	b := &model.SKU{Code: "B", Name: "B", Unit: "шт", Active: true}
	require.NoError(t, skus.Create(context.Background(), a))
	require.NoError(t, skus.Create(context.Background(), b))

	repo := NewInventoryRepository(db)
	require.NoError(t, repo.SaveAll(context.Background(), []model.Inventory{
		{SKUID: a.ID, LocationID: locs[0], Quantity: 10},
		{SKUID: b.ID, LocationID: locs[1], Quantity: 3},
	}))

	ids, err := repo.SKUIDsInScope(context.Background(), InventoryScope{WarehouseIDs: []uuid.UUID{whID}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, ids)

	ids, err = repo.SKUIDsInScope(context.Background(), InventoryScope{LocationID: &locs[1]})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID}, ids)

	rows, err := repo.ListInScope(context.Background(), InventoryScope{ZoneID: &zoneID})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// deactivating the zone removes its stock from every scope
	require.NoError(t, NewStructureRepository(db).SetActive(context.Background(), model.EntityZone, zoneID, false))
	ids, err = repo.SKUIDsInScope(context.Background(), InventoryScope{})
	require.NoError(t, err)
	assert.Empty(t, ids)

	last, err := repo.LastUpdated(context.Background(), InventoryScope{})
	require.NoError(t, err)
	assert.Nil(t, last)
	// SKU listings still see stock held at disabled locations
	bySKU, err := repo.ListBySKU(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, bySKU, 1)
	assert.Equal(t, 10.0, bySKU[0].Quantity)
}

func TestAggregationRepo_UpsertNeverDuplicates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAggregationRepository(db)
	ctx := context.Background()
	entity := uuid.New()
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first := &model.Aggregation{EntityType: model.EntityLocation, EntityID: entity, EntityCode: "L-1",
		EntityName: "WH / Z / L-1", TotalQuantity: 10, Status: model.StatusGray, CalculatedAt: t1}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &model.Aggregation{EntityType: model.EntityLocation, EntityID: entity, EntityCode: "L-1",
		EntityName: "WH / Z / L-1", TotalQuantity: 42, Capacity: fp(100), FillPercentage: fp(42),
		Status: model.StatusRed, CalculatedAt: t1.Add(time.Minute)}
	require.NoError(t, repo.Upsert(ctx, second))

	rows, err := repo.ListByType(ctx, model.EntityLocation)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 42.0, rows[0].TotalQuantity)
	assert.Equal(t, model.StatusRed, rows[0].Status)
	require.NotNil(t, rows[0].FillPercentage)
	assert.Equal(t, 42.0, *rows[0].FillPercentage)
}

func TestAggregationRepo_DeleteStale(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAggregationRepository(db)
	ctx := context.Background()
	old := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := old.Add(time.Hour)

	require.NoError(t, repo.Upsert(ctx, &model.Aggregation{EntityType: model.EntityZone, EntityID: uuid.New(),
		EntityCode: "gone", EntityName: "gone", Status: model.StatusGray, CalculatedAt: old}))
	require.NoError(t, repo.Upsert(ctx, &model.Aggregation{EntityType: model.EntityZone, EntityID: uuid.New(),
		EntityCode: "kept", EntityName: "kept", Status: model.StatusRed, CalculatedAt: now}))

	n, err := repo.DeleteStale(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rows, err := repo.ListByStatuses(ctx, "", []model.Status{model.StatusRed, model.StatusGray})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "kept", rows[0].EntityCode)

	latest, err := repo.LatestCalculatedAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Equal(now))
}

func TestNormRepo_UpsertReplacesAndValidates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNormRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, repo.Upsert(ctx, &model.Norm{EntityType: model.NormSKU, EntityID: owner,
		MinLevel: fp(10), TargetLevel: fp(20), Unit: "шт"}))
	require.NoError(t, repo.Upsert(ctx, &model.Norm{EntityType: model.NormSKU, EntityID: owner,
		MinLevel: fp(5), TargetLevel: fp(50), MaxLevel: fp(80), Unit: "шт"}))

	all, err := repo.List(ctx, model.NormSKU)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 50.0, *all[0].TargetLevel)

	err = repo.Upsert(ctx, &model.Norm{EntityType: model.NormSKU, EntityID: owner, MinLevel: fp(30), TargetLevel: fp(20), Unit: "шт"})
	assert.ErrorIs(t, err, model.ErrInvalidNorm)

	byOwner, err := repo.MapByEntity(ctx, model.NormSKU, []uuid.UUID{owner, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, byOwner, 1)

	require.NoError(t, repo.Delete(ctx, all[0].ID))
	assert.ErrorIs(t, repo.Delete(ctx, all[0].ID), gorm.ErrRecordNotFound)
}

func TestSettingsRepo_DefaultsOnFirstRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	s, err := repo.Get(ctx, model.DefaultSettings("ООО Тест"))
	require.NoError(t, err)
	assert.Equal(t, "ООО Тест", s.CompanyName)
	assert.Equal(t, 30, s.RefreshInterval)

	s.CompactMode = true
	require.NoError(t, repo.Save(ctx, s))

	again, err := repo.Get(ctx, model.DefaultSettings("другое"))
	require.NoError(t, err)
	assert.True(t, again.CompactMode)
	assert.Equal(t, "ООО Тест", again.CompanyName)
}
