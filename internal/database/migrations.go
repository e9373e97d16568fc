package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gst-billing-service/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationsDir is the directory inside migrationsFS goose reads from
const migrationsDir = "migrations"

// migrationsTable keeps goose's version history apart from the model tables
const migrationsTable = "schema_migrations"

// gen_random_uuid() is built in from PostgreSQL 13, older servers need pgcrypto.
// It has to exist before AutoMigrate creates the uuid defaults.
const extensionsSQL = "CREATE EXTENSION IF NOT EXISTS pgcrypto"

// Models lists every table owned by the service, in dependency order
func Models() []interface{} {
	return []interface{}{
		&models.Shop{},
		&models.User{},
		&models.BankDetail{},
		&models.NotificationPreference{},
		&models.Branch{},
		&models.APIToken{},
		&models.AuditLog{},
		&models.Customer{},
		&models.Product{},
		&models.Invoice{},
		&models.InvoiceItem{},
	}
}

// RunMigrations brings the schema up to date. Safe to run on every start.
func RunMigrations(db *gorm.DB, logger *logrus.Logger) error {
	log := logger.WithField("component", "migrations")
	log.Info("Starting database migrations")

	if err := db.Exec(extensionsSQL).Error; err != nil {
		return fmt.Errorf("failed to create extensions: %w", err)
	}

	for _, m := range Models() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("failed to auto-migrate %T: %w", m, err)
		}
	}
	log.Info("Schema migrations complete")

	// AutoMigrate does not add indexes to tables that already exist
	if err := ensureUniqueIndexes(db, log); err != nil {
		return fmt.Errorf("failed to create unique indexes: %w", err)
	}

	if err := runSQLMigrations(db, log); err != nil {
		return fmt.Errorf("failed to run SQL migrations: %w", err)
	}

	log.Info("All database migrations complete")
	return nil
}

func ensureUniqueIndexes(db *gorm.DB, log *logrus.Entry) error {
	indexes := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_invoices_shop_invoice_no",
			sql:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_shop_invoice_no ON invoices (shop_id, invoice_no)`,
		},
		{
			name: "idx_users_lower_email",
			sql:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_lower_email ON users (lower(email))`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("index %s: %w", idx.name, err)
		}
		log.WithField("index", idx.name).Debug("Created/verified index")
	}
	return nil
}

// runSQLMigrations applies the embedded goose migrations that have not run yet
func runSQLMigrations(db *gorm.DB, log *logrus.Entry) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(log)
	goose.SetTableName(migrationsTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(sqlDB, migrationsDir); err != nil && !errors.Is(err, goose.ErrNoNextVersion) {
		return err
	}

	version, err := goose.GetDBVersion(sqlDB)
	if err == nil {
		log.WithField("version", version).Info("SQL migrations up to date")
	}
	return nil
}
