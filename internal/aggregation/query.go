package aggregation

import (
	"math"
	"sort"
	"strings"

	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 5000
)

// SortField is a column the read interface can order by.
type SortField string

const (
	SortEntityName        SortField = "entityName"
	SortFillPercentage    SortField = "fillPercentage"
	SortTotalQuantity     SortField = "totalQuantity"
	SortAvailableQuantity SortField = "availableQuantity"
	SortDeviationFromMin  SortField = "deviationFromMin"
)

func (f SortField) Valid() bool {
	switch f {
	case SortEntityName, SortFillPercentage, SortTotalQuantity, SortAvailableQuantity, SortDeviationFromMin:
		return true
	}
	return false
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// FilterSpec is the typed, already validated filter set. Zero fields do not
// filter. All set fields are AND-combined.
type FilterSpec struct {
	EntityType   model.EntityType
	Status       model.Status
	Search       string
	WarehouseIDs []uuid.UUID
	ZoneID       *uuid.UUID
	Category     string
	Supplier     string
	ABCClass     string

	// EntityIDs restricts the result to the given entities when non-nil.
	// An empty non-nil set matches nothing.
	EntityIDs map[uuid.UUID]struct{}
}

// SortSpec orders the result. An empty Field keeps the input order.
type SortSpec struct {
	Field SortField
	Order SortOrder
}

// PageSpec is a 1-indexed page request.
type PageSpec struct {
	Page     int
	PageSize int
}

// Normalize clamps the page into the accepted range.
func (p PageSpec) Normalize() PageSpec {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Page is one slice of the filtered and sorted rows.
type Page struct {
	Data       []model.Aggregation
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Query filters, sorts and paginates rows. The input slice is not modified.
// A page past the end yields empty Data with correct Total and TotalPages.
func Query(rows []model.Aggregation, f FilterSpec, s SortSpec, p PageSpec) Page {
	p = p.Normalize()

	matched := make([]model.Aggregation, 0, len(rows))
	for i := range rows {
		if f.Match(&rows[i]) {
			matched = append(matched, rows[i])
		}
	}

	Sort(matched, s)

	total := len(matched)
	page := Page{
		Data:       []model.Aggregation{},
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(p.PageSize))),
	}
	// Compare in pages first so huge page numbers cannot overflow the offset.
	if p.Page-1 >= page.TotalPages {
		return page
	}
	start := (p.Page - 1) * p.PageSize
	end := start + p.PageSize
	if end > total {
		end = total
	}
	page.Data = matched[start:end]
	return page
}

// Match reports whether a satisfies every set filter.
func (f FilterSpec) Match(a *model.Aggregation) bool {
	if f.EntityType != "" && a.EntityType != f.EntityType {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.EntityIDs != nil {
		if _, ok := f.EntityIDs[a.EntityID]; !ok {
			return false
		}
	}
	if len(f.WarehouseIDs) > 0 && !inWarehouses(a, f.WarehouseIDs) {
		return false
	}
	if f.ZoneID != nil && !inZone(a, *f.ZoneID) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(deref(a.Category), f.Category) {
		return false
	}
	if f.Supplier != "" && !strings.EqualFold(deref(a.Supplier), f.Supplier) {
		return false
	}
	if f.ABCClass != "" && !strings.EqualFold(deref(a.ABCClass), f.ABCClass) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(a.EntityCode), q) &&
			!strings.Contains(strings.ToLower(a.EntityName), q) {
			return false
		}
	}
	return true
}

// inWarehouses matches a warehouse row by its own id and any lower row by
// its ancestor warehouse.
func inWarehouses(a *model.Aggregation, ids []uuid.UUID) bool {
	for _, id := range ids {
		if a.EntityType == model.EntityWarehouse && a.EntityID == id {
			return true
		}
		if a.WarehouseID != nil && *a.WarehouseID == id {
			return true
		}
	}
	return false
}

func inZone(a *model.Aggregation, id uuid.UUID) bool {
	if a.EntityType == model.EntityZone {
		return a.EntityID == id
	}
	return a.ZoneID != nil && *a.ZoneID == id
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Sort orders rows in place. The sort is stable, so ties keep their prior
// order in both directions.
func Sort(rows []model.Aggregation, s SortSpec) {
	if s.Field == "" {
		return
	}
	less := comparator(s.Field)
	if s.Order == SortDesc {
		sort.SliceStable(rows, func(i, j int) bool { return less(&rows[j], &rows[i]) })
		return
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(&rows[i], &rows[j]) })
}

func comparator(field SortField) func(a, b *model.Aggregation) bool {
	switch field {
	case SortFillPercentage:
		return func(a, b *model.Aggregation) bool { return fillOrUnknown(a) < fillOrUnknown(b) }
	case SortTotalQuantity:
		return func(a, b *model.Aggregation) bool { return a.TotalQuantity < b.TotalQuantity }
	case SortAvailableQuantity:
		return func(a, b *model.Aggregation) bool { return a.AvailableQuantity < b.AvailableQuantity }
	case SortDeviationFromMin:
		return func(a, b *model.Aggregation) bool {
			return DeviationFromMin(a.TotalQuantity, a.MinLevel) < DeviationFromMin(b.TotalQuantity, b.MinLevel)
		}
	default:
		// collate.Collator is not safe for concurrent use; one per sort.
		c := collate.New(language.Russian, collate.IgnoreCase)
		return func(a, b *model.Aggregation) bool {
			return c.CompareString(a.EntityName, b.EntityName) < 0
		}
	}
}

// fillOrUnknown sorts rows without a fill percentage as -1.
func fillOrUnknown(a *model.Aggregation) float64 {
	if a.FillPercentage == nil {
		return -1
	}
	return *a.FillPercentage
}
