package infra

import (
	"fmt"

	"github.com/OskolkovOleg/sklad-monitoring/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// NewDatabase opens a GORM connection for the configured driver, runs
// AutoMigrate and then applies the idempotent patches AutoMigrate cannot
// express. SQLite is meant for local runs and tests; it gets a single
// connection so in-memory databases are shared by every query.
func NewDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres, "":
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates every table and applies schema patches.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Warehouse{},
		&model.Zone{},
		&model.Location{},
		&model.SKU{},
		&model.Inventory{},
		&model.Norm{},
		&model.Aggregation{},
		&model.ImportLog{},
		&model.ReportExport{},
		&model.Settings{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs PostgreSQL-only DDL. Each statement is guarded so
// re-running on an already-patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// alerts read red/yellow rows of one level
		{"partial index for alert reads", `
CREATE INDEX IF NOT EXISTS idx_aggregations_alerts
    ON aggregations (entity_type, status)
    WHERE status IN ('red', 'yellow')`},
		// recompute prunes rows older than the snapshot
		{"index for stale pruning", `
CREATE INDEX IF NOT EXISTS idx_aggregations_calculated_at
    ON aggregations (calculated_at)`},
		{"inventory invariant check", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_inventory_quantities') THEN
    ALTER TABLE inventory ADD CONSTRAINT chk_inventory_quantities
      CHECK (quantity >= 0 AND reserved_qty >= 0 AND unavailable_qty >= 0
             AND reserved_qty + unavailable_qty <= quantity);
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
