package infra

// Aggregation report rendered with go-pdf/fpdf.
// A4 landscape table: code, name, quantity, capacity, fill %, min/target,
// status. Rows are colored by status like the dashboard bars.
//
// Core PDF fonts have no Cyrillic glyphs; set PDF_FONT_PATH to a UTF-8 TTF
// (DejaVuSans works) to render Russian names. Without it the report falls back
// to Helvetica and non-Latin characters are replaced.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"github.com/go-pdf/fpdf"
)

// PDFReport renders aggregation tables.
type PDFReport struct {
	fontPath string
}

func NewPDFReport(fontPath string) *PDFReport {
	return &PDFReport{fontPath: fontPath}
}

// ReportMeta is printed in the report header.
type ReportMeta struct {
	CompanyName string
	Title       string
	GeneratedAt time.Time
	Filters     string
}

var statusFill = map[model.Status][3]int{
	model.StatusGreen:  {209, 250, 229},
	model.StatusYellow: {254, 243, 199},
	model.StatusRed:    {254, 226, 226},
	model.StatusGray:   {243, 244, 246},
}

// Render returns the PDF document as bytes.
func (r *PDFReport) Render(meta ReportMeta, rows []model.Aggregation) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if r.fontPath != "" {
		pdf.AddUTF8Font("report", "", r.fontPath)
		pdf.AddUTF8Font("report", "B", r.fontPath)
		family = "report"
		tr = func(s string) string { return s }
	}
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont(family, "B", 14)
	pdf.CellFormat(contentW, 8, tr(meta.CompanyName), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(contentW, 6, tr(meta.Title), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 8)
	pdf.CellFormat(contentW, 5, meta.GeneratedAt.Format("02.01.2006 15:04"), "", 1, "L", false, 0, "")
	if meta.Filters != "" {
		pdf.CellFormat(contentW, 5, tr(meta.Filters), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// ── Table ────────────────────────────────────────────────────────────────
	cols := []struct {
		title string
		width float64
		align string
	}{
		{"Code", 0.12, "L"},
		{"Name", 0.34, "L"},
		{"Quantity", 0.10, "R"},
		{"Capacity", 0.10, "R"},
		{"Fill %", 0.08, "R"},
		{"Min", 0.08, "R"},
		{"Target", 0.08, "R"},
		{"Status", 0.10, "C"},
	}

	pdf.SetFont(family, "B", 8)
	pdf.SetFillColor(229, 231, 235)
	for _, c := range cols {
		pdf.CellFormat(contentW*c.width, 6, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 8)
	for _, row := range rows {
		rgb := statusFill[row.Status]
		pdf.SetFillColor(rgb[0], rgb[1], rgb[2])
		values := []string{
			truncate(row.EntityCode, 18),
			truncate(row.EntityName, 60),
			formatNumber(&row.TotalQuantity),
			formatNumber(row.Capacity),
			formatNumber(row.FillPercentage),
			formatNumber(row.MinLevel),
			formatNumber(row.TargetLevel),
			string(row.Status),
		}
		for i, c := range cols {
			pdf.CellFormat(contentW*c.width, 5, tr(values[i]), "1", 0, c.align, true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(2)
	pdf.SetFont(family, "", 7)
	pdf.CellFormat(contentW, 4, fmt.Sprintf("Rows: %d", len(rows)), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the report into dir and returns the file path.
func (r *PDFReport) WriteFile(dir, fileName string, meta ReportMeta, rows []model.Aggregation) (string, error) {
	data, err := r.Render(meta, rows)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return path, nil
}

func formatNumber(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f", *v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
