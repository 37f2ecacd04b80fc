package worker

// recalc_worker.go
// Processes recompute jobs from QueueRecalculate.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"

	"github.com/rs/zerolog/log"
)

// Recalculator runs a full aggregation recompute.
type Recalculator interface {
	RecalculateAll(ctx context.Context) (*dto.RecalculateResponse, error)
}

type RecalcWorker struct {
	recalc Recalculator
}

func NewRecalcWorker(recalc Recalculator) *RecalcWorker {
	return &RecalcWorker{recalc: recalc}
}

func (w *RecalcWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var req recalcRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Warn().Err(err).Msg("recalc_worker: unreadable payload, recomputing anyway")
	}
	resp, err := w.recalc.RecalculateAll(ctx)
	if err != nil {
		return err
	}
	ev := log.Info().Int64("duration_ms", resp.DurationMs)
	if !req.RequestedAt.IsZero() {
		ev = ev.Dur("queued_for", time.Since(req.RequestedAt))
	}
	ev.Msg("recalc_worker: recompute done")
	return nil
}
