package infra

import (
	"fmt"

	"sosstock/internal/model"

	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AlertsChannel is the LISTEN/NOTIFY channel fired for every inserted alert.
const AlertsChannel = "alerts_inserted"

// NewDatabase opens a GORM connection backed by pgx. Driver errors such as
// unique violations are translated to gorm.ErrDuplicatedKey.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// NewReadDB exposes the GORM connection pool through sqlx for hand-written
// aggregate queries. Both share the same *sql.DB.
func NewReadDB(db *gorm.DB) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(sqlDB, "pgx"), nil
}

// RunMigrations creates the tables from the models and applies the idempotent
// SQL patches GORM cannot express. Production schemas are managed outside the
// service; this is used for local development and the integration suite.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Category{},
		&model.Profile{},
		&model.Supplier{},
		&model.Location{},
		&model.Product{},
		&model.ProductVariant{},
		&model.ProductSupplier{},
		&model.Batch{},
		&model.BatchInventory{},
		&model.InventoryItem{},
		&model.InventoryMovement{},
		&model.Order{},
		&model.OrderItem{},
		&model.Alert{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches is safe to run on every start: every statement is
// guarded by IF NOT EXISTS or CREATE OR REPLACE.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// One inventory row per (location, product, variant), NULL variant included.
		{"inventory slot uniqueness", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_slot
  ON inventory (location_id, product_id, variant_id) NULLS NOT DISTINCT`},

		{"closed order status", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_orders_status') THEN
    ALTER TABLE orders ADD CONSTRAINT chk_orders_status CHECK
      (status IN ('draft','pending','ordered','partially_received','received','cancelled'));
  END IF;
END $$`},

		{"closed movement type", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_movements_type') THEN
    ALTER TABLE inventory_movements ADD CONSTRAINT chk_movements_type CHECK
      (movement_type IN ('in','out','transfer','adjustment','consumption'));
  END IF;
END $$`},

		{"alert notify function", `
CREATE OR REPLACE FUNCTION notify_alert_inserted() RETURNS trigger AS $$
BEGIN
  PERFORM pg_notify('` + AlertsChannel + `', NEW.id::text);
  RETURN NEW;
END;
$$ LANGUAGE plpgsql`},

		{"alert notify trigger", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_alerts_notify') THEN
    CREATE TRIGGER trg_alerts_notify AFTER INSERT ON alerts
      FOR EACH ROW EXECUTE FUNCTION notify_alert_inserted();
  END IF;
END $$`},

		{"movement lookup by date", `
CREATE INDEX IF NOT EXISTS idx_movements_created_desc ON inventory_movements (created_at DESC)`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("%s: %w", p.descr, err)
		}
	}
	return nil
}
