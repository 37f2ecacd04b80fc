package aggregation

import (
	"fmt"
	"sort"

	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/google/uuid"
)

// DefaultTopN is the size of the top contributors list.
const DefaultTopN = 10

// Contribution is the summed stock of one SKU (or one location, when the
// entity is a SKU) inside the inspected entity.
type Contribution struct {
	ID       uuid.UUID
	Code     string
	Name     string
	Unit     string
	Quantity float64
}

// TopItem is a contribution with its share of the entity total.
type TopItem struct {
	Contribution
	Percentage float64
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// ProblemItem is a SKU whose stock inside the entity breaks its SKU norm.
type ProblemItem struct {
	Contribution
	Threshold float64
	Shortfall float64
	Severity  Severity
	Issue     string
}

// GroupInventory sums inventory rows by key. key returns the group id plus
// its display attributes. Result order is first appearance.
func GroupInventory(rows []model.Inventory, key func(model.Inventory) Contribution) []Contribution {
	index := make(map[uuid.UUID]int)
	var out []Contribution
	for _, inv := range rows {
		c := key(inv)
		if i, ok := index[c.ID]; ok {
			out[i].Quantity += inv.Quantity
			continue
		}
		c.Quantity = inv.Quantity
		index[c.ID] = len(out)
		out = append(out, c)
	}
	return out
}

// TopContributors returns the n largest contributions with their percentage
// of total (0 when total is 0).
func TopContributors(items []Contribution, total float64, n int) []TopItem {
	sorted := make([]Contribution, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Quantity > sorted[j].Quantity })
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]TopItem, 0, len(sorted))
	for _, c := range sorted {
		item := TopItem{Contribution: c}
		if total > 0 {
			item.Percentage = FillPercentageOf(c.Quantity, total)
		}
		out = append(out, item)
	}
	return out
}

// FillPercentageOf is part/whole*100 rounded to two decimals; whole must be
// positive.
func FillPercentageOf(part, whole float64) float64 {
	return *FillPercentage(part, &whole)
}

// ProblemItems checks every contribution against its SKU norm. Below min is
// critical, below target is a warning. Critical items come first, then the
// larger shortfall.
func ProblemItems(items []Contribution, norms map[uuid.UUID]model.Norm, n int) []ProblemItem {
	var out []ProblemItem
	for _, c := range items {
		norm, ok := norms[c.ID]
		if !ok {
			continue
		}
		switch {
		case norm.MinLevel != nil && c.Quantity < *norm.MinLevel:
			out = append(out, ProblemItem{
				Contribution: c,
				Threshold:    *norm.MinLevel,
				Shortfall:    *norm.MinLevel - c.Quantity,
				Severity:     SeverityCritical,
				Issue:        fmt.Sprintf("Остаток %g ниже минимума %g", c.Quantity, *norm.MinLevel),
			})
		case norm.TargetLevel != nil && c.Quantity < *norm.TargetLevel:
			out = append(out, ProblemItem{
				Contribution: c,
				Threshold:    *norm.TargetLevel,
				Shortfall:    *norm.TargetLevel - c.Quantity,
				Severity:     SeverityWarning,
				Issue:        fmt.Sprintf("Остаток %g ниже целевого уровня %g", c.Quantity, *norm.TargetLevel),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity == SeverityCritical
		}
		return out[i].Shortfall > out[j].Shortfall
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
