package storage

import (
	"context"
	"fmt"

	"github.com/cuongbtq/pharma-pricing-be/shared/postgresql"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS competitor_observations (
		observation_id        UUID PRIMARY KEY,
		competitor            TEXT NOT NULL,
		external_name         TEXT NOT NULL,
		url                   TEXT,
		price                 NUMERIC(10, 2),
		category              TEXT,
		requires_prescription BOOLEAN,
		requires_consultation BOOLEAN,
		raw_data              JSONB,
		matched_drug_id       UUID,
		scraped_at            TIMESTAMPTZ NOT NULL,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_observations_competitor
		ON competitor_observations (competitor, external_name)`,
	`CREATE INDEX IF NOT EXISTS idx_observations_unmatched
		ON competitor_observations (competitor) WHERE matched_drug_id IS NULL`,
	`CREATE TABLE IF NOT EXISTS competitor_run_logs (
		run_log_id         UUID PRIMARY KEY,
		competitor         TEXT NOT NULL,
		status             TEXT NOT NULL,
		observations_found INTEGER NOT NULL DEFAULT 0,
		error_message      TEXT,
		duration_ms        BIGINT NOT NULL DEFAULT 0,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_run_logs_competitor_created
		ON competitor_run_logs (competitor, created_at DESC)`,
}

// Migrate creates the pipeline's tables and indexes if they do not exist.
func Migrate(ctx context.Context, pg *postgresql.Client) error {
	db := pg.GetDB()
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
