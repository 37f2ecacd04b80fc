package aggregation

import (
	"testing"

	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupInventory_SumsBySKU(t *testing.T) {
	s1, s2 := uuid.New(), uuid.New()
	rows := []model.Inventory{
		{SKUID: s1, Quantity: 10},
		{SKUID: s2, Quantity: 5},
		{SKUID: s1, Quantity: 7},
	}
	got := GroupInventory(rows, func(inv model.Inventory) Contribution {
		return Contribution{ID: inv.SKUID}
	})
	require.Len(t, got, 2)
	assert.Equal(t, s1, got[0].ID)
	assert.Equal(t, 17.0, got[0].Quantity)
	assert.Equal(t, 5.0, got[1].Quantity)
}

func TestTopContributors(t *testing.T) {
	items := make([]Contribution, 0, 12)
	for i := 1; i <= 12; i++ {
		items = append(items, Contribution{ID: uuid.New(), Quantity: float64(i)})
	}
	top := TopContributors(items, 78, DefaultTopN)

	require.Len(t, top, DefaultTopN)
	assert.Equal(t, 12.0, top[0].Quantity)
	assert.Equal(t, 15.38, top[0].Percentage)
	assert.Equal(t, 3.0, top[9].Quantity)

	zero := TopContributors(items[:1], 0, DefaultTopN)
	assert.Equal(t, 0.0, zero[0].Percentage)
}

func TestProblemItems_SeverityThenShortfall(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	items := []Contribution{
		{ID: a, Code: "A", Quantity: 90},  // warning, short 10
		{ID: b, Code: "B", Quantity: 10},  // critical, short 40
		{ID: c, Code: "C", Quantity: 45},  // critical, short 5
		{ID: d, Code: "D", Quantity: 500}, // fine
	}
	norms := map[uuid.UUID]model.Norm{
		a: {MinLevel: f(50), TargetLevel: f(100)},
		b: {MinLevel: f(50), TargetLevel: f(100)},
		c: {MinLevel: f(50)},
		d: {MinLevel: f(50), TargetLevel: f(100)},
	}

	got := ProblemItems(items, norms, 10)

	require.Len(t, got, 3)
	assert.Equal(t, "B", got[0].Code)
	assert.Equal(t, SeverityCritical, got[0].Severity)
	assert.Equal(t, "Остаток 10 ниже минимума 50", got[0].Issue)
	assert.Equal(t, "C", got[1].Code)
	assert.Equal(t, "A", got[2].Code)
	assert.Equal(t, SeverityWarning, got[2].Severity)
	assert.Equal(t, 10.0, got[2].Shortfall)
}
