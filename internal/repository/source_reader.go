package repository

import (
	"context"
	"fmt"

	"github.com/OskolkovOleg/sklad-monitoring/internal/aggregation"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// SourceReader loads every collection the roll-up needs. Collections are
// fetched concurrently; each keeps a deterministic order by code so the
// snapshot rows come out in the same order on every run.
type SourceReader interface {
	Load(ctx context.Context) (aggregation.Source, error)
}

type sourceReader struct{ db *gorm.DB }

func NewSourceReader(db *gorm.DB) SourceReader { return &sourceReader{db: db} }

func (r *sourceReader) Load(ctx context.Context) (aggregation.Source, error) {
	var src aggregation.Source
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return wrapLoad("warehouses", r.db.WithContext(gctx).Order("code ASC").Find(&src.Warehouses).Error)
	})
	g.Go(func() error {
		return wrapLoad("zones", r.db.WithContext(gctx).Order("code ASC").Find(&src.Zones).Error)
	})
	g.Go(func() error {
		return wrapLoad("locations", r.db.WithContext(gctx).Order("code ASC").Find(&src.Locations).Error)
	})
	g.Go(func() error {
		return wrapLoad("skus", r.db.WithContext(gctx).Order("code ASC").Find(&src.SKUs).Error)
	})
	g.Go(func() error {
		return wrapLoad("inventory", r.db.WithContext(gctx).Order("id ASC").Find(&src.Inventory).Error)
	})
	g.Go(func() error {
		return wrapLoad("norms", r.db.WithContext(gctx).Find(&src.Norms).Error)
	})

	if err := g.Wait(); err != nil {
		return aggregation.Source{}, err
	}
	return src, nil
}

func wrapLoad(what string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", what, err)
	}
	return nil
}
