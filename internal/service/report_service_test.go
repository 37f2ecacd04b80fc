package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/infra"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPDF struct {
	meta infra.ReportMeta
	rows int
}

func (p *stubPDF) Render(meta infra.ReportMeta, rows []model.Aggregation) ([]byte, error) {
	p.meta, p.rows = meta, len(rows)
	return []byte("%PDF-1.3"), nil
}

func newReportHarness(t *testing.T) (*reportService, *stubExportRepo, *stubPDF) {
	t.Helper()
	h := newAggHarness(newAggFixture())
	_, err := h.svc.RecalculateAll(context.Background())
	require.NoError(t, err)

	exports := &stubExportRepo{}
	pdf := &stubPDF{}
	settings := NewSettingsService(&stubSettingsRepo{}, "ООО Склад")
	svc := NewReportService(h.svc, exports, settings, pdf).(*reportService)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }
	return svc, exports, pdf
}

func locationQuery() dto.AggregationQuery {
	return dto.AggregationQuery{EntityType: "location", SortField: "entityName", SortOrder: "asc", Page: 1, PageSize: 1}
}

func TestReportCSV_QuotedWithBOM(t *testing.T) {
	svc, exports, _ := newReportHarness(t)

	r, err := svc.CSV(context.Background(), locationQuery(), "")
	require.NoError(t, err)

	assert.Equal(t, "aggregations_location_20240501_123000.csv", r.Filename)
	assert.Equal(t, 2, r.Records, "export ignores pagination")
	require.True(t, bytes.HasPrefix(r.Body, utf8BOM))
	assert.Contains(t, string(r.Body), `"Тип","Код","Наименование"`)
	assert.Contains(t, string(r.Body), "\r\n")

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(r.Body, utf8BOM))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "A-01", records[1][1])
	assert.Equal(t, "10", records[1][3])
	assert.Equal(t, "red", records[1][11])

	require.Len(t, exports.exports, 1)
	e := exports.exports[0]
	assert.Equal(t, model.ReportCSV, e.ReportType)
	assert.Equal(t, "anonymous", e.ExportedBy)
	assert.Equal(t, 2, e.RecordCount)
	assert.Equal(t, "location", e.Filters["entityType"])
}

func TestReportCSV_EscapesQuotes(t *testing.T) {
	var buf bytes.Buffer
	writeQuotedCSV(&buf, []string{`Склад "Север"`, ""})
	assert.Equal(t, "\"Склад \"\"Север\"\"\",\"\"\r\n", buf.String())
}

func TestReportPDF_UsesCompanyAndFilters(t *testing.T) {
	svc, exports, pdf := newReportHarness(t)
	q := locationQuery()
	q.Status = "red"

	r, err := svc.PDF(context.Background(), q, "ivanova")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", r.ContentType)
	assert.Equal(t, 1, r.Records)
	assert.Equal(t, 1, pdf.rows)
	assert.Equal(t, "ООО Склад", pdf.meta.CompanyName)
	assert.Equal(t, "статус: red", pdf.meta.Filters)
	require.Len(t, exports.exports, 1)
	assert.Equal(t, "ivanova", exports.exports[0].ExportedBy)

	history, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.ReportPDF, history[0].ReportType)
}
