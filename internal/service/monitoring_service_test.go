package service

import (
	"context"
	"testing"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAgg(r *stubAggRepo, t model.EntityType, code string, status model.Status, qty, available float64, capacity *float64, wh *uuid.UUID) model.Aggregation {
	a := model.Aggregation{
		ID:                uuid.New(),
		EntityType:        t,
		EntityID:          uuid.New(),
		EntityCode:        code,
		EntityName:        "Склад / " + code,
		WarehouseID:       wh,
		Status:            status,
		TotalQuantity:     qty,
		AvailableQuantity: available,
		Capacity:          capacity,
		CalculatedAt:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	r.rows[aggKey{t, a.EntityID}] = a
	return a
}

func TestKPI_CountsLocationStatuses(t *testing.T) {
	repo := newStubAggRepo()
	wh := uuid.New()
	other := uuid.New()
	seedAgg(repo, model.EntityLocation, "A-01", model.StatusGreen, 90, 80, fp(100), &wh)
	seedAgg(repo, model.EntityLocation, "A-02", model.StatusRed, 10, 10, fp(100), &wh)
	seedAgg(repo, model.EntityLocation, "A-03", model.StatusGray, 0, 0, nil, &wh)
	seedAgg(repo, model.EntityLocation, "B-01", model.StatusYellow, 60, 60, fp(100), &other)
	seedAgg(repo, model.EntityWarehouse, "WH", model.StatusGreen, 1000, 1000, fp(1000), nil)

	updated := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	inv := &stubInventoryRepo{rows: []model.Inventory{{LastUpdated: updated}}}
	svc := NewMonitoringService(repo, inv)

	kpi, err := svc.KPI(context.Background(), dto.KPIQuery{WarehouseID: wh.String()})
	require.NoError(t, err)
	assert.Equal(t, 3, kpi.TotalPositions)
	assert.Equal(t, 1, kpi.GreenCount)
	assert.Equal(t, 0, kpi.YellowCount)
	assert.Equal(t, 1, kpi.RedCount)
	assert.Equal(t, 1, kpi.GrayCount)
	assert.Equal(t, 100.0, kpi.TotalQuantity)
	assert.Equal(t, 200.0, kpi.TotalCapacity)
	assert.Equal(t, 50.0, kpi.AvgFillPercentage)
	assert.Equal(t, 90.0, kpi.UtilizationRate)
	require.NotNil(t, kpi.LastUpdate)
	assert.True(t, updated.Equal(*kpi.LastUpdate))
}

func TestKPI_EmptyCache(t *testing.T) {
	svc := NewMonitoringService(newStubAggRepo(), &stubInventoryRepo{})

	kpi, err := svc.KPI(context.Background(), dto.KPIQuery{})
	require.NoError(t, err)
	assert.Zero(t, kpi.TotalPositions)
	assert.Zero(t, kpi.AvgFillPercentage)
	assert.Nil(t, kpi.LastUpdate)
}

func TestKPI_RejectsBadZone(t *testing.T) {
	svc := NewMonitoringService(newStubAggRepo(), &stubInventoryRepo{})

	_, err := svc.KPI(context.Background(), dto.KPIQuery{ZoneID: "zone-a"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestAlerts_HighBeforeMedium(t *testing.T) {
	repo := newStubAggRepo()
	seedAgg(repo, model.EntityLocation, "A-01", model.StatusYellow, 60, 60, fp(100), nil)
	red := seedAgg(repo, model.EntitySKU, "S-9", model.StatusRed, 5, 5, nil, nil)
	red.MinLevel = fp(20)
	repo.rows[aggKey{red.EntityType, red.EntityID}] = red
	seedAgg(repo, model.EntityLocation, "A-02", model.StatusGreen, 90, 90, fp(100), nil)

	svc := NewMonitoringService(repo, &stubInventoryRepo{})
	alerts, err := svc.Alerts(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, AlertHigh, alerts[0].Severity)
	assert.Equal(t, "S-9", alerts[0].EntityCode)
	assert.Contains(t, alerts[0].Message, "ниже минимального уровня на 75%")
	assert.Equal(t, AlertMedium, alerts[1].Severity)
	assert.Contains(t, alerts[1].Message, "требует внимания")

	limited, err := svc.Alerts(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
