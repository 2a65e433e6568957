package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-edge/internal/config"
	"github.com/yourusername/quant-edge/internal/logger"
)

// Schema creates the report archive. Statements are idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS report_archive (
		id            UUID PRIMARY KEY,
		run_date      DATE NOT NULL,
		status        TEXT NOT NULL,
		plays         INTEGER NOT NULL,
		manual_override BOOLEAN NOT NULL DEFAULT FALSE,
		generated_at  TIMESTAMPTZ NOT NULL,
		report        JSONB NOT NULL,
		archived_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS report_archive_run_date_idx
		ON report_archive (run_date, generated_at DESC)`,
}

// EnsureSchema applies Schema through q.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range Schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Initialize opens the pool and makes sure the archive table exists. It
// returns nil without error when the database is disabled.
func Initialize(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*DB, error) {
	log = logger.OrDiscard(log)
	if !cfg.Database.Enabled {
		log.Debug("Report archive disabled")
		return nil, nil
	}

	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.WithTransaction(ctx, func(q Querier) error { return EnsureSchema(ctx, q) }); err != nil {
		db.Close()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	}).Info("Report archive connected")
	return db, nil
}
