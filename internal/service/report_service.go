package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/infra"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/OskolkovOleg/sklad-monitoring/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// Report is a rendered export ready to be served as a download.
type Report struct {
	Filename    string
	ContentType string
	Body        []byte
	Records     int
}

type ReportService interface {
	CSV(ctx context.Context, q dto.AggregationQuery, exportedBy string) (*Report, error)
	PDF(ctx context.Context, q dto.AggregationQuery, exportedBy string) (*Report, error)
	History(ctx context.Context, limit int) ([]dto.ReportExportResponse, error)
}

// PDFRenderer renders aggregation rows into a PDF document.
type PDFRenderer interface {
	Render(meta infra.ReportMeta, rows []model.Aggregation) ([]byte, error)
}

type reportService struct {
	aggregations AggregationService
	exports      repository.ReportExportRepository
	settings     SettingsService
	pdf          PDFRenderer
	now          func() time.Time
}

func NewReportService(aggregations AggregationService, exports repository.ReportExportRepository, settings SettingsService, pdf PDFRenderer) ReportService {
	return &reportService{aggregations: aggregations, exports: exports, settings: settings, pdf: pdf, now: time.Now}
}

var csvHeader = []string{
	"Тип", "Код", "Наименование", "Количество", "Доступно", "Резерв",
	"Вместимость", "Заполненность, %", "Минимум", "Целевой", "Максимум", "Статус", "Рассчитано",
}

func (s *reportService) CSV(ctx context.Context, q dto.AggregationQuery, exportedBy string) (*Report, error) {
	rows, err := s.aggregations.Select(ctx, q)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	writeQuotedCSV(&buf, csvHeader)
	for _, a := range rows {
		writeQuotedCSV(&buf, []string{
			string(a.EntityType), a.EntityCode, a.EntityName,
			formatFloat(&a.TotalQuantity), formatFloat(&a.AvailableQuantity), formatFloat(&a.ReservedQuantity),
			formatFloat(a.Capacity), formatFloat(a.FillPercentage),
			formatFloat(a.MinLevel), formatFloat(a.TargetLevel), formatFloat(a.MaxLevel),
			string(a.Status), a.CalculatedAt.Format(time.RFC3339),
		})
	}

	report := &Report{
		Filename:    s.filename(q, "csv"),
		ContentType: "text/csv; charset=utf-8",
		Body:        buf.Bytes(),
		Records:     len(rows),
	}
	s.record(ctx, report, model.ReportCSV, q, exportedBy)
	return report, nil
}

func (s *reportService) PDF(ctx context.Context, q dto.AggregationQuery, exportedBy string) (*Report, error) {
	rows, err := s.aggregations.Select(ctx, q)
	if err != nil {
		return nil, err
	}
	company := ""
	if st, err := s.settings.Get(ctx); err == nil {
		company = st.CompanyName
	}
	body, err := s.pdf.Render(infra.ReportMeta{
		CompanyName: company,
		Title:       "Отчёт по агрегатам: " + q.EntityType,
		GeneratedAt: s.now(),
		Filters:     describeFilters(q),
	}, rows)
	if err != nil {
		return nil, err
	}
	report := &Report{
		Filename:    s.filename(q, "pdf"),
		ContentType: "application/pdf",
		Body:        body,
		Records:     len(rows),
	}
	s.record(ctx, report, model.ReportPDF, q, exportedBy)
	return report, nil
}

func (s *reportService) History(ctx context.Context, limit int) ([]dto.ReportExportResponse, error) {
	list, err := s.exports.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReportExportResponse, 0, len(list))
	for _, e := range list {
		out = append(out, dto.ReportExportResponse{
			ID:          e.ID.String(),
			Filename:    e.Filename,
			ReportType:  e.ReportType,
			EntityType:  string(e.EntityType),
			RecordCount: e.RecordCount,
			Filters:     e.Filters,
			ExportedBy:  e.ExportedBy,
			ExportedAt:  e.ExportedAt,
		})
	}
	return out, nil
}

func (s *reportService) filename(q dto.AggregationQuery, ext string) string {
	return fmt.Sprintf("aggregations_%s_%s.%s", q.EntityType, s.now().UTC().Format("20060102_150405"), ext)
}

// record writes the export history entry. A failure is logged only; the
// report itself was produced.
func (s *reportService) record(ctx context.Context, r *Report, kind string, q dto.AggregationQuery, exportedBy string) {
	if exportedBy == "" {
		exportedBy = "anonymous"
	}
	entry := &model.ReportExport{
		Filename:    r.Filename,
		ReportType:  kind,
		EntityType:  model.EntityType(q.EntityType),
		RecordCount: r.Records,
		Filters:     filterMap(q),
		ExportedBy:  exportedBy,
		ExportedAt:  s.now().UTC(),
	}
	if err := s.exports.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("file", r.Filename).Msg("report history: write failed")
	}
}

func filterMap(q dto.AggregationQuery) datatypes.JSONMap {
	m := datatypes.JSONMap{}
	add := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	add("entityType", q.EntityType)
	add("status", q.Status)
	add("search", q.Search)
	add("warehouseId", q.WarehouseID)
	add("zoneId", q.ZoneID)
	add("locationId", q.LocationID)
	add("category", q.Category)
	add("supplier", q.Supplier)
	add("abcClass", q.ABCClass)
	add("sortField", q.SortField)
	add("sortOrder", q.SortOrder)
	return m
}

func describeFilters(q dto.AggregationQuery) string {
	var parts []string
	for k, v := range map[string]string{
		"статус": q.Status, "поиск": q.Search, "категория": q.Category,
		"поставщик": q.Supplier, "ABC": q.ABCClass,
	} {
		if v != "" {
			parts = append(parts, k+": "+v)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// writeQuotedCSV writes one record with every field quoted.
func writeQuotedCSV(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteString("\r\n")
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
