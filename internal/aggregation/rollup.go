package aggregation

import (
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/google/uuid"
)

// Source is one consistent read of everything the roll-up needs. Slices keep
// the order the caller loaded them in; output rows follow that order.
type Source struct {
	Warehouses []model.Warehouse
	Zones      []model.Zone
	Locations  []model.Location
	SKUs       []model.SKU
	Inventory  []model.Inventory
	Norms      []model.Norm
}

// Snapshot is the result of a full recompute. Every row carries CalculatedAt.
type Snapshot struct {
	CalculatedAt time.Time
	Rows         []model.Aggregation
}

// Count returns the number of rows of the given level.
func (s Snapshot) Count(t model.EntityType) int {
	n := 0
	for i := range s.Rows {
		if s.Rows[i].EntityType == t {
			n++
		}
	}
	return n
}

// totals is the running sum of one hierarchy node. The has* flags keep
// "nothing known" apart from "known and equal to zero".
type totals struct {
	total, available, reserved float64

	capacity    float64
	hasCapacity bool

	min, target, max          float64
	hasMin, hasTarget, hasMax bool
}

func (t *totals) addInventory(inv model.Inventory) {
	t.total += inv.Quantity
	t.reserved += inv.ReservedQty
	if inv.Status == model.InventoryAvailable {
		t.available += inv.Quantity - inv.ReservedQty
	}
}

func (t *totals) setNorm(n *model.Norm) {
	if n == nil {
		return
	}
	if n.MinLevel != nil {
		t.min, t.hasMin = *n.MinLevel, true
	}
	if n.TargetLevel != nil {
		t.target, t.hasTarget = *n.TargetLevel, true
	}
	if n.MaxLevel != nil {
		t.max, t.hasMax = *n.MaxLevel, true
	}
}

// add folds a child node into t: quantities, capacity and each norm level are
// summed independently.
func (t *totals) add(c totals) {
	t.total += c.total
	t.available += c.available
	t.reserved += c.reserved
	if c.hasCapacity {
		t.capacity += c.capacity
		t.hasCapacity = true
	}
	if c.hasMin {
		t.min += c.min
		t.hasMin = true
	}
	if c.hasTarget {
		t.target += c.target
		t.hasTarget = true
	}
	if c.hasMax {
		t.max += c.max
		t.hasMax = true
	}
}

func opt(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// row classifies t and fills the numeric part of an aggregation row.
func (t totals) row(base model.Aggregation, now time.Time) model.Aggregation {
	base.TotalQuantity = t.total
	base.AvailableQuantity = t.available
	base.ReservedQuantity = t.reserved
	base.Capacity = opt(t.capacity, t.hasCapacity)
	base.MinLevel = opt(t.min, t.hasMin)
	base.TargetLevel = opt(t.target, t.hasTarget)
	base.MaxLevel = opt(t.max, t.hasMax)
	base.FillPercentage = FillPercentage(t.total, base.Capacity)
	base.Status = Classify(t.total, base.MinLevel, base.TargetLevel, base.Capacity)
	base.CalculatedAt = now
	return base
}

// Rollup computes one aggregation row for every active warehouse, zone,
// location and SKU.
//
// Locations use their own location norm. Zones and warehouses sum the
// location norms and capacities below them, level by level. SKU rows use the
// SKU norm only and never carry a capacity. Status and fill of every row are
// computed from that row's own totals. Inactive warehouses, zones and
// locations are skipped together with everything below them. SKU totals still
// sum every inventory row of the SKU, wherever it is held.
func Rollup(src Source, now time.Time) Snapshot {
	locationNorms := make(map[uuid.UUID]*model.Norm)
	skuNorms := make(map[uuid.UUID]*model.Norm)
	for i := range src.Norms {
		n := &src.Norms[i]
		switch n.EntityType {
		case model.NormLocation:
			locationNorms[n.EntityID] = n
		case model.NormSKU:
			skuNorms[n.EntityID] = n
		}
	}

	zonesByWarehouse := make(map[uuid.UUID][]*model.Zone)
	for i := range src.Zones {
		z := &src.Zones[i]
		if z.Active {
			zonesByWarehouse[z.WarehouseID] = append(zonesByWarehouse[z.WarehouseID], z)
		}
	}
	locationsByZone := make(map[uuid.UUID][]*model.Location)
	for i := range src.Locations {
		l := &src.Locations[i]
		if l.Active {
			locationsByZone[l.ZoneID] = append(locationsByZone[l.ZoneID], l)
		}
	}
	inventoryByLocation := make(map[uuid.UUID][]model.Inventory)
	for _, inv := range src.Inventory {
		inventoryByLocation[inv.LocationID] = append(inventoryByLocation[inv.LocationID], inv)
	}

	var warehouseRows, zoneRows, locationRows []model.Aggregation

	for i := range src.Warehouses {
		wh := &src.Warehouses[i]
		if !wh.Active {
			continue
		}
		whID := wh.ID
		var whTotals totals

		for _, zone := range zonesByWarehouse[wh.ID] {
			zoneID := zone.ID
			zoneName := wh.Name + " / " + zone.Name
			var zoneTotals totals

			for _, loc := range locationsByZone[zone.ID] {
				var locTotals totals
				for _, inv := range inventoryByLocation[loc.ID] {
					locTotals.addInventory(inv)
				}
				if loc.Capacity != nil {
					locTotals.capacity, locTotals.hasCapacity = *loc.Capacity, true
				}
				locTotals.setNorm(locationNorms[loc.ID])

				locationRows = append(locationRows, locTotals.row(model.Aggregation{
					EntityType:  model.EntityLocation,
					EntityID:    loc.ID,
					EntityCode:  loc.Code,
					EntityName:  zoneName + " / " + loc.Name,
					WarehouseID: &whID,
					ZoneID:      &zoneID,
				}, now))
				zoneTotals.add(locTotals)
			}

			zoneRows = append(zoneRows, zoneTotals.row(model.Aggregation{
				EntityType:  model.EntityZone,
				EntityID:    zone.ID,
				EntityCode:  zone.Code,
				EntityName:  zoneName,
				WarehouseID: &whID,
			}, now))
			whTotals.add(zoneTotals)
		}

		warehouseRows = append(warehouseRows, whTotals.row(model.Aggregation{
			EntityType: model.EntityWarehouse,
			EntityID:   wh.ID,
			EntityCode: wh.Code,
			EntityName: wh.Name,
		}, now))
	}

	skuTotals := make(map[uuid.UUID]*totals)
	for _, inv := range src.Inventory {
		t, ok := skuTotals[inv.SKUID]
		if !ok {
			t = &totals{}
			skuTotals[inv.SKUID] = t
		}
		t.addInventory(inv)
	}

	skuRows := make([]model.Aggregation, 0, len(src.SKUs))
	for i := range src.SKUs {
		sku := &src.SKUs[i]
		if !sku.Active {
			continue
		}
		var t totals
		if st, ok := skuTotals[sku.ID]; ok {
			t = *st
		}
		t.setNorm(skuNorms[sku.ID])
		skuRows = append(skuRows, t.row(model.Aggregation{
			EntityType: model.EntitySKU,
			EntityID:   sku.ID,
			EntityCode: sku.Code,
			EntityName: sku.Name,
			Category:   sku.Category,
			Supplier:   sku.Supplier,
			ABCClass:   sku.ABCClass,
		}, now))
	}

	rows := make([]model.Aggregation, 0, len(warehouseRows)+len(zoneRows)+len(locationRows)+len(skuRows))
	rows = append(rows, warehouseRows...)
	rows = append(rows, zoneRows...)
	rows = append(rows, locationRows...)
	rows = append(rows, skuRows...)
	return Snapshot{CalculatedAt: now, Rows: rows}
}
