package worker

// email_worker.go
// Processes alert digest jobs from QueueAlertEmail.
// Sends the red/yellow list to the configured address, with a PDF copy attached.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/infra"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AlertMailer delivers one rendered digest.
type AlertMailer interface {
	Enabled() bool
	SendAlertDigest(to []string, subject, text, html, attachPath string) error
}

// ReportWriter renders aggregation rows into a PDF file and returns its path.
type ReportWriter interface {
	WriteFile(dir, fileName string, meta infra.ReportMeta, rows []model.Aggregation) (string, error)
}

// EmailWorker processes alert digest jobs. Sends go through the circuit
// breaker; while it is open jobs fail fast and end up in the DLQ.
type EmailWorker struct {
	mailer    AlertMailer
	cb        *infra.CircuitBreaker
	pdf       ReportWriter
	reportDir string
}

// NewEmailWorker creates an EmailWorker. pdf may be nil to send without
// attachment.
func NewEmailWorker(mailer AlertMailer, cb *infra.CircuitBreaker, pdf ReportWriter, reportDir string) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb, pdf: pdf, reportDir: reportDir}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var digest dto.AlertDigest
	if err := json.Unmarshal(raw, &digest); err != nil {
		return fmt.Errorf("%w: email_worker: invalid payload: %v", errPermanent, err)
	}
	if len(digest.To) == 0 || len(digest.Alerts) == 0 {
		log.Warn().Msg("email_worker: empty digest, skipping")
		return nil
	}
	if !w.mailer.Enabled() {
		log.Warn().Int("alerts", len(digest.Alerts)).Msg("email_worker: smtp not configured, digest dropped")
		return nil
	}

	subject := digestSubject(digest)
	text := renderDigestText(digest)
	html, err := renderDigestHTML(digest)
	if err != nil {
		return fmt.Errorf("%w: email_worker: render: %v", errPermanent, err)
	}

	attach := w.writeAttachment(digest)
	if attach != "" {
		defer os.Remove(attach)
	}

	send := func() error { return w.mailer.SendAlertDigest(digest.To, subject, text, html, attach) }
	if w.cb != nil {
		err = w.cb.Execute(send)
	} else {
		err = send()
	}
	if err != nil {
		log.Error().Err(err).Strs("to", digest.To).Msg("email_worker: failed to send digest")
		return err
	}
	log.Info().Strs("to", digest.To).Int("alerts", len(digest.Alerts)).Msg("email_worker: digest sent")
	return nil
}

// writeAttachment renders the alerts as a PDF; failures only drop the
// attachment.
func (w *EmailWorker) writeAttachment(d dto.AlertDigest) string {
	if w.pdf == nil || w.reportDir == "" {
		return ""
	}
	rows := make([]model.Aggregation, 0, len(d.Alerts))
	for _, a := range d.Alerts {
		id, _ := uuid.Parse(a.EntityID)
		rows = append(rows, model.Aggregation{
			EntityType:     model.EntityType(a.EntityType),
			EntityID:       id,
			EntityCode:     a.EntityCode,
			EntityName:     a.EntityName,
			TotalQuantity:  a.TotalQuantity,
			FillPercentage: a.FillPercentage,
			Status:         model.Status(a.Status),
			CalculatedAt:   a.CalculatedAt,
		})
	}
	name := fmt.Sprintf("alerts_%s.pdf", d.GeneratedAt.UTC().Format("20060102_150405"))
	path, err := w.pdf.WriteFile(w.reportDir, name, infra.ReportMeta{
		CompanyName: d.CompanyName,
		Title:       "Оповещения о запасах",
		GeneratedAt: d.GeneratedAt,
	}, rows)
	if err != nil {
		log.Warn().Err(err).Msg("email_worker: pdf attachment skipped")
		return ""
	}
	return path
}

func digestSubject(d dto.AlertDigest) string {
	high := 0
	for _, a := range d.Alerts {
		if a.Severity == "high" {
			high++
		}
	}
	return fmt.Sprintf("%s: %d критичных, %d требуют внимания", d.CompanyName, high, len(d.Alerts)-high)
}

func renderDigestText(d dto.AlertDigest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Оповещения о запасах на %s\n\n", d.GeneratedAt.Format("02.01.2006 15:04"))
	for _, a := range d.Alerts {
		marker := "!"
		if a.Severity == "high" {
			marker = "!!"
		}
		fmt.Fprintf(&b, "%s [%s] %s\n", marker, a.EntityCode, a.Message)
	}
	return b.String()
}

var digestHTML = template.Must(template.New("digest").Parse(`<html><body>
<h3>{{.CompanyName}}: оповещения о запасах</h3>
<p>{{.GeneratedAt.Format "02.01.2006 15:04"}}</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Код</th><th>Наименование</th><th>Количество</th><th>Сообщение</th></tr>
{{range .Alerts}}<tr style="background:{{if eq .Severity "high"}}#f8d7da{{else}}#fff3cd{{end}}"><td>{{.EntityCode}}</td><td>{{.EntityName}}</td><td>{{.TotalQuantity}}</td><td>{{.Message}}</td></tr>
{{end}}</table>
</body></html>`))

func renderDigestHTML(d dto.AlertDigest) (string, error) {
	var buf bytes.Buffer
	if err := digestHTML.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
