// Package migrate applies the embedded SQL migrations of the postgres backend.
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/and161185/secure-vault/migrations"
)

// Test seams for goose.
var (
	gooseUp = func(ctx context.Context, db *sql.DB) error {
		return goose.UpContext(ctx, db, ".")
	}
	dbVersion = goose.GetDBVersionContext
)

// Up runs all pending migrations from the embedded filesystem and logs the
// schema version the database ends up at.
func Up(ctx context.Context, dsn string, log *zap.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return apply(ctx, db, log)
}

func apply(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if err := gooseUp(ctx, db); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	v, err := dbVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("goose version: %w", err)
	}
	log.Info("registry schema ready", zap.Int64("version", v))
	return nil
}
