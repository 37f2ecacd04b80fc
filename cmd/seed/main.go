// Command seed loads a demo warehouse structure, catalogue, norms and stock
// through the regular services, then recomputes aggregations.
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/config"
	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/infra"
	"github.com/OskolkovOleg/sklad-monitoring/internal/router"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type demoSKU struct {
	code, name, category, supplier, abc, unit string
	min, target, max                          float64
}

var demoSKUs = []demoSKU{
	{"SKU-001", "Болт М8х40", "Крепёж", "МеталлПром", "A", "шт", 200, 500, 1500},
	{"SKU-002", "Гайка М8", "Крепёж", "МеталлПром", "A", "шт", 300, 800, 2000},
	{"SKU-003", "Шайба 8 мм", "Крепёж", "МеталлПром", "B", "шт", 200, 600, 2000},
	{"SKU-004", "Кабель ВВГ 3х2.5", "Электрика", "ЭлектроСнаб", "A", "м", 100, 400, 1000},
	{"SKU-005", "Автомат 16А", "Электрика", "ЭлектроСнаб", "B", "шт", 20, 60, 150},
	{"SKU-006", "Краска белая 10 л", "ЛКМ", "Колор", "B", "л", 30, 80, 200},
	{"SKU-007", "Грунтовка 5 л", "ЛКМ", "Колор", "C", "л", 10, 40, 100},
	{"SKU-008", "Цемент М500", "Сыпучие", "СтройБаза", "A", "кг", 500, 2000, 5000},
	{"SKU-009", "Песок речной", "Сыпучие", "СтройБаза", "C", "кг", 300, 1000, 4000},
	{"SKU-010", "Перчатки рабочие", "СИЗ", "Защита+", "C", "шт", 50, 150, 400},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	svcs := router.NewServices(cfg, db, nil, infra.NewPDFReport(cfg.PDFFontPath))
	ctx := context.Background()

	synced, err := svcs.Structure.Sync(ctx, demoStructure())
	if err != nil {
		log.Fatal().Err(err).Msg("structure sync failed")
	}
	log.Info().Int("warehouses", synced.Warehouses).Int("zones", synced.Zones).Int("locations", synced.Locations).Msg("structure seeded")

	norms := dto.NormImportRequest{Filename: "seed"}
	for _, s := range demoSKUs {
		s := s
		_, err := svcs.SKUs.Create(ctx, dto.CreateSKURequest{
			Code: s.code, Name: s.name, Category: &s.category, Supplier: &s.supplier, ABCClass: &s.abc, Unit: s.unit,
		})
		if err != nil {
			log.Warn().Err(err).Str("sku", s.code).Msg("sku not created (already exists?)")
		}
		norms.SKUNorms = append(norms.SKUNorms, dto.SKUNormRow{
			SKUCode: s.code, MinLevel: &s.min, TargetLevel: &s.target, MaxLevel: &s.max,
		})
	}

	// Deterministic stock so every seeded database looks the same.
	rng := rand.New(rand.NewPCG(42, 2024))
	inv := dto.InventoryImportRequest{Filename: "seed"}
	for _, wh := range []string{"MSK", "SPB"} {
		for _, zone := range []string{"A", "B", "C"} {
			for i := 1; i <= 8; i++ {
				loc := fmt.Sprintf("%s-%02d", zone, i)
				// locations hold 1..3 SKUs; some are left empty
				n := rng.IntN(4)
				for j := 0; j < n; j++ {
					s := demoSKUs[rng.IntN(len(demoSKUs))]
					qty := float64(rng.IntN(int(s.target) + 1))
					inv.Rows = append(inv.Rows, dto.InventoryImportRow{
						SKUCode: s.code, LocationCode: loc, ZoneCode: zone, WarehouseCode: wh,
						Quantity:    qty,
						ReservedQty: float64(int(qty) / 10),
					})
				}
				if i <= 4 {
					minL, targetL, maxL := 50.0, 200.0, 400.0
					norms.LocationNorms = append(norms.LocationNorms, dto.LocationNormRow{
						LocationCode: loc, ZoneCode: zone, WarehouseCode: wh,
						MinLevel: &minL, TargetLevel: &targetL, MaxLevel: &maxL,
					})
				}
			}
		}
	}

	normRes, err := svcs.Norms.Import(ctx, norms)
	if err != nil {
		log.Fatal().Err(err).Msg("norm import failed")
	}
	log.Info().Int("ok", normRes.SuccessRows).Int("errors", normRes.ErrorRows).Msg("norms seeded")

	invRes, err := svcs.Inventory.Import(ctx, inv)
	if err != nil {
		log.Fatal().Err(err).Msg("inventory import failed")
	}
	log.Info().Int("ok", invRes.SuccessRows).Int("errors", invRes.ErrorRows).Msg("inventory seeded")

	res, err := svcs.Aggregations.RecalculateAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("recompute failed")
	}
	fmt.Printf("Seed done: %d warehouses, %d zones, %d locations, %d SKUs aggregated in %d ms\n",
		res.Warehouses, res.Zones, res.Locations, res.SKUs, res.DurationMs)
}

func demoStructure() dto.StructureSyncRequest {
	var req dto.StructureSyncRequest
	names := map[string]string{"MSK": "Склад Москва", "SPB": "Склад Санкт-Петербург"}
	for _, wh := range []string{"MSK", "SPB"} {
		w := dto.SyncWarehouseRequest{Code: wh, Name: names[wh]}
		for _, zone := range []string{"A", "B", "C"} {
			z := dto.SyncZoneRequest{Code: zone, Name: "Зона " + zone}
			for i := 1; i <= 8; i++ {
				capacity := 500.0
				if zone == "C" {
					capacity = 5000
				}
				row := fmt.Sprintf("%d", (i+1)/2)
				z.Locations = append(z.Locations, dto.SyncLocationRequest{
					Code:     fmt.Sprintf("%s-%02d", zone, i),
					Name:     fmt.Sprintf("Ячейка %s-%02d", zone, i),
					Row:      &row,
					Capacity: &capacity,
				})
			}
			w.Zones = append(w.Zones, z)
		}
		req.Warehouses = append(req.Warehouses, w)
	}
	return req
}
