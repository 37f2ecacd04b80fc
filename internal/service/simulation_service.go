package service

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/OskolkovOleg/sklad-monitoring/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SimulationService produces demo stock movement: a tick perturbs
// quantities, moves stock between neighbouring locations, opens and closes
// "grey" locations, then recomputes.
type SimulationService interface {
	Tick(ctx context.Context) (*dto.TickResult, error)
}

type simulationService struct {
	inventory repository.InventoryRepository
	structure repository.StructureRepository
	recalc    Recalculator

	mu  sync.Mutex // guards rng
	rng *rand.Rand
	now func() time.Time
}

func NewSimulationService(inventory repository.InventoryRepository, structure repository.StructureRepository, recalc Recalculator) SimulationService {
	return newSimulationService(inventory, structure, recalc, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)))
}

func newSimulationService(inventory repository.InventoryRepository, structure repository.StructureRepository, recalc Recalculator, rng *rand.Rand) *simulationService {
	return &simulationService{inventory: inventory, structure: structure, recalc: recalc, rng: rng, now: time.Now}
}

// between returns a uniform value in [lo, hi).
func (s *simulationService) between(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// share returns ceil(n*frac), at least 1 when n > 0.
func share(n int, frac float64) int {
	if n == 0 {
		return 0
	}
	k := int(math.Ceil(float64(n) * frac))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// clampHolds keeps reserved + unavailable within quantity after a decrease.
func clampHolds(inv *model.Inventory) {
	if inv.ReservedQty > inv.Quantity {
		inv.ReservedQty = inv.Quantity
	}
	if inv.ReservedQty+inv.UnavailableQty > inv.Quantity {
		inv.UnavailableQty = inv.Quantity - inv.ReservedQty
	}
}

func (s *simulationService) Tick(ctx context.Context) (*dto.TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.inventory.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("tick: load inventory: %w", err)
	}
	locations, err := s.structure.ListActiveLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("tick: load locations: %w", err)
	}

	now := s.now().UTC()
	res := &dto.TickResult{}
	touched := make(map[int]bool)

	// 5-10% of the rows change by ±10-30%.
	for _, i := range s.rng.Perm(len(rows))[:share(len(rows), s.between(0.05, 0.10))] {
		inv := &rows[i]
		delta := s.between(0.10, 0.30)
		if s.rng.IntN(2) == 0 {
			delta = -delta
		}
		inv.Quantity = math.Max(0, math.Round(inv.Quantity*(1+delta)))
		clampHolds(inv)
		touched[i] = true
		res.Changed++
	}

	// 2-3 moves of 30-70% between two locations of one zone.
	zoneOf := make(map[uuid.UUID]uuid.UUID, len(locations))
	byZone := make(map[uuid.UUID][]uuid.UUID)
	for _, l := range locations {
		zoneOf[l.ID] = l.ZoneID
		byZone[l.ZoneID] = append(byZone[l.ZoneID], l.ID)
	}
	moves := 2 + s.rng.IntN(2)
	for attempt := 0; res.Moves < moves && attempt < moves*10 && len(rows) > 0; attempt++ {
		i := s.rng.IntN(len(rows))
		src := &rows[i]
		if src.Quantity <= 0 {
			continue
		}
		siblings := byZone[zoneOf[src.LocationID]]
		if len(siblings) < 2 {
			continue
		}
		dst := siblings[s.rng.IntN(len(siblings))]
		if dst == src.LocationID {
			continue
		}
		amount := math.Round(src.Quantity * s.between(0.30, 0.70))
		free := src.Quantity - src.ReservedQty - src.UnavailableQty
		amount = math.Min(amount, free)
		if amount <= 0 {
			continue
		}
		src.Quantity -= amount
		touched[i] = true

		j := findRow(rows, src.SKUID, dst)
		if j < 0 {
			rows = append(rows, model.Inventory{SKUID: src.SKUID, LocationID: dst, Status: model.InventoryAvailable})
			j = len(rows) - 1
		}
		rows[j].Quantity += amount
		touched[j] = true
		res.Moves++
	}

	// 1-2% of locations turn grey: capacity cleared or stock zeroed.
	grey := s.rng.Perm(len(locations))[:share(len(locations), s.between(0.01, 0.02))]
	for _, li := range grey {
		loc := locations[li]
		if s.rng.IntN(2) == 0 {
			if err := s.structure.UpdateCapacity(ctx, loc.ID, ptr(0.0)); err != nil {
				return nil, fmt.Errorf("tick: clear capacity: %w", err)
			}
		} else {
			for i := range rows {
				if rows[i].LocationID == loc.ID && rows[i].Quantity != 0 {
					rows[i].Quantity, rows[i].ReservedQty, rows[i].UnavailableQty = 0, 0, 0
					touched[i] = true
				}
			}
		}
		res.GrayHoles++
	}

	// 5% chance to restore 20% of grey locations with capacity 100-500.
	if s.rng.Float64() < 0.05 {
		var empty []model.Location
		for _, l := range locations {
			if l.Capacity == nil || *l.Capacity == 0 {
				empty = append(empty, l)
			}
		}
		for _, li := range s.rng.Perm(len(empty))[:share(len(empty), 0.20)] {
			capacity := float64(100 + s.rng.IntN(401))
			if err := s.structure.UpdateCapacity(ctx, empty[li].ID, &capacity); err != nil {
				return nil, fmt.Errorf("tick: restore capacity: %w", err)
			}
			res.Restored++
		}
	}

	changed := make([]model.Inventory, 0, len(touched))
	for i := range touched {
		rows[i].LastUpdated = now
		changed = append(changed, rows[i])
	}
	if err := s.inventory.SaveAll(ctx, changed); err != nil {
		return nil, fmt.Errorf("tick: save inventory: %w", err)
	}

	log.Debug().
		Int("changed", res.Changed).
		Int("moves", res.Moves).
		Int("gray", res.GrayHoles).
		Int("restored", res.Restored).
		Msg("simulation tick")

	if s.recalc != nil {
		snap, err := s.recalc.RecalculateAll(ctx)
		if err != nil {
			return res, err
		}
		res.Recalculated = true
		res.CalculatedAt = snap.CalculatedAt
	}
	return res, nil
}

func findRow(rows []model.Inventory, skuID, locationID uuid.UUID) int {
	for i := range rows {
		if rows[i].SKUID == skuID && rows[i].LocationID == locationID && rows[i].BatchNumber == nil {
			return i
		}
	}
	return -1
}
