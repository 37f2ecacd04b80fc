package repository

import (
	"context"

	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"gorm.io/gorm"
)

// ── Import log ───────────────────────────────────────────────────────────────

type ImportLogRepository interface {
	Create(ctx context.Context, l *model.ImportLog) error
	Update(ctx context.Context, l *model.ImportLog) error
	List(ctx context.Context, limit int) ([]model.ImportLog, error)
}

type importLogRepo struct{ db *gorm.DB }

func NewImportLogRepository(db *gorm.DB) ImportLogRepository { return &importLogRepo{db: db} }

func (r *importLogRepo) Create(ctx context.Context, l *model.ImportLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *importLogRepo) Update(ctx context.Context, l *model.ImportLog) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *importLogRepo) List(ctx context.Context, limit int) ([]model.ImportLog, error) {
	var out []model.ImportLog
	err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// ── Report export history ────────────────────────────────────────────────────

type ReportExportRepository interface {
	Create(ctx context.Context, e *model.ReportExport) error
	List(ctx context.Context, limit int) ([]model.ReportExport, error)
}

type reportExportRepo struct{ db *gorm.DB }

func NewReportExportRepository(db *gorm.DB) ReportExportRepository {
	return &reportExportRepo{db: db}
}

func (r *reportExportRepo) Create(ctx context.Context, e *model.ReportExport) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *reportExportRepo) List(ctx context.Context, limit int) ([]model.ReportExport, error) {
	var out []model.ReportExport
	err := r.db.WithContext(ctx).Order("exported_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// ── Settings ─────────────────────────────────────────────────────────────────

type SettingsRepository interface {
	// Get returns the singleton row, creating it from defaults on first read.
	Get(ctx context.Context, defaults model.Settings) (*model.Settings, error)
	Save(ctx context.Context, s *model.Settings) error
}

type settingsRepo struct{ db *gorm.DB }

func NewSettingsRepository(db *gorm.DB) SettingsRepository { return &settingsRepo{db: db} }

func (r *settingsRepo) Get(ctx context.Context, defaults model.Settings) (*model.Settings, error) {
	var s model.Settings
	defaults.ID = model.SettingsID
	err := r.db.WithContext(ctx).
		Where("id = ?", model.SettingsID).
		Attrs(defaults).
		FirstOrCreate(&s).Error
	return &s, err
}

func (r *settingsRepo) Save(ctx context.Context, s *model.Settings) error {
	s.ID = model.SettingsID
	return r.db.WithContext(ctx).Save(s).Error
}
