package service

import (
	"context"
	"errors"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrInvalidNorm       = model.ErrInvalidNorm
	ErrInvariant         = model.ErrInventoryInvariant
	ErrConflict          = errors.New("already exists")
	ErrParentRequired    = errors.New("parentId is required for this level")
	ErrQueueUnavailable  = errors.New("job queue unavailable")
	ErrInvalidQuery      = errors.New("invalid query")
)

// JobQueue hands work to the background workers.
type JobQueue interface {
	EnqueueRecalculate(ctx context.Context) error
	EnqueueAlertDigest(ctx context.Context, digest dto.AlertDigest) error
}

// QueryCache stores serialised read results between recomputes.
type QueryCache interface {
	Get(ctx context.Context, name string, dest any) bool
	Set(ctx context.Context, name string, v any)
	Invalidate(ctx context.Context)
}

// Recalculator is the part of AggregationService that writers call after
// changing source data.
type Recalculator interface {
	RecalculateAll(ctx context.Context) (*dto.RecalculateResponse, error)
}

func ptr[T any](v T) *T { return &v }
