package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// gooseStatusContext is a seam for testing goose.StatusContext.
var gooseStatusContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.StatusContext(ctx, db, dir, opts...)
}

// gooseLogger routes goose output through zap
type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.sugar.Fatalf(format, v...)
}

func (db *DB) prepareGoose() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{sugar: db.logger.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return nil
}

// Migrate applies all pending embedded migrations
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.prepareGoose(); err != nil {
		return err
	}
	db.logger.Info("running database migrations")
	if err := gooseUpContext(ctx, db.DB, migrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	db.logger.Info("migrations completed successfully")
	return nil
}

// MigrationStatus logs the applied state of every embedded migration
func (db *DB) MigrationStatus(ctx context.Context) error {
	if err := db.prepareGoose(); err != nil {
		return err
	}
	if err := gooseStatusContext(ctx, db.DB, migrationsDir); err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	return nil
}
