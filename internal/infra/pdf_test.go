package infra

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFReport_Render(t *testing.T) {
	capacity, fill := 1000.0, 85.0
	rows := []model.Aggregation{
		{EntityType: model.EntityLocation, EntityID: uuid.New(), EntityCode: "A-01", EntityName: "Main / A / 01",
			TotalQuantity: 850, Capacity: &capacity, FillPercentage: &fill, Status: model.StatusGreen},
		{EntityType: model.EntityLocation, EntityID: uuid.New(), EntityCode: "A-02", EntityName: "Main / A / 02",
			Status: model.StatusGray},
	}
	r := NewPDFReport("")

	data, err := r.Render(ReportMeta{CompanyName: "Acme", Title: "Locations", GeneratedAt: time.Now()}, rows)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	path, err := r.WriteFile(t.TempDir(), "report.pdf", ReportMeta{CompanyName: "Acme", Title: "Locations", GeneratedAt: time.Now()}, rows)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "Скла…", truncate("Складской", 5))
	assert.Equal(t, "—", formatNumber(nil))
}
