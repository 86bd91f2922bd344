package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver, required by golang-migrate

	"github.com/pepperjack/objectstore/internal/catalog/postgres/migrations"
)

// RunMigrations applies every pending migration against dsn. Safe to call
// from multiple starting instances: golang-migrate takes a PostgreSQL
// advisory lock for the duration of the run.
func RunMigrations(ctx context.Context, dsn string, logger *slog.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("catalog: open migration connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("catalog: ping for migration: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "schema_migrations",
		DatabaseName:    "objectstore",
	})
	if err != nil {
		return fmt.Errorf("catalog: create postgres driver: %w", err)
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("catalog: create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("catalog: create migrate instance: %w", err)
	}

	logger.Info("catalog: applying migrations")
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("catalog: migration failed: %w", err)
	}

	version, dirty, verr := m.Version()
	switch {
	case verr == migrate.ErrNilVersion:
		logger.Info("catalog: no migrations applied yet")
	case verr != nil:
		return fmt.Errorf("catalog: read migration version: %w", verr)
	default:
		logger.Info("catalog: schema version", "version", version, "dirty", dirty)
		if dirty {
			logger.Warn("catalog: schema is dirty — manual intervention may be required")
		}
	}
	return nil
}
