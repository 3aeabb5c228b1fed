package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/model"
	"github.com/cuongbtq/pharma-pricing-be/shared/postgresql"
)

const runLogColumns = `
	run_log_id, competitor, status, observations_found,
	error_message, duration_ms, created_at
`

// RunLogStore handles the append-only scrape run audit trail
type RunLogStore struct {
	db *sqlx.DB
}

// NewRunLogStore creates a new RunLogStore instance
func NewRunLogStore(pg *postgresql.Client) *RunLogStore {
	return &RunLogStore{
		db: pg.GetDB(),
	}
}

func (s *RunLogStore) Insert(ctx context.Context, log *model.RunLog) error {
	query := `
		INSERT INTO competitor_run_logs (
			run_log_id, competitor, status, observations_found,
			error_message, duration_ms, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		log.RunLogID,
		log.Competitor,
		log.Status,
		log.ObservationsFound,
		log.ErrorMessage,
		log.DurationMs,
		log.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert run log: %w", err)
	}

	return nil
}

func (s *RunLogStore) FindRecent(ctx context.Context, limit int) ([]model.RunLog, error) {
	query := `
		SELECT ` + runLogColumns + `
		FROM competitor_run_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	logs := []model.RunLog{}
	if err := s.db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list run logs: %w", err)
	}

	return logs, nil
}

func (s *RunLogStore) FindByCompetitor(ctx context.Context, competitor string, limit int) ([]model.RunLog, error) {
	query := `
		SELECT ` + runLogColumns + `
		FROM competitor_run_logs
		WHERE competitor = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	logs := []model.RunLog{}
	if err := s.db.SelectContext(ctx, &logs, query, competitor, limit); err != nil {
		return nil, fmt.Errorf("failed to list run logs: %w", err)
	}

	return logs, nil
}

// FindLatestByCompetitor returns, for every competitor present in the store,
// the single run log with the greatest created_at.
func (s *RunLogStore) FindLatestByCompetitor(ctx context.Context) (map[string]model.RunLog, error) {
	query := `
		SELECT DISTINCT ON (competitor) ` + runLogColumns + `
		FROM competitor_run_logs
		ORDER BY competitor, created_at DESC
	`

	logs := []model.RunLog{}
	if err := s.db.SelectContext(ctx, &logs, query); err != nil {
		return nil, fmt.Errorf("failed to list latest run logs: %w", err)
	}

	latest := make(map[string]model.RunLog, len(logs))
	for _, log := range logs {
		latest[log.Competitor] = log
	}

	return latest, nil
}

// DeleteByCompetitor purges one competitor's run logs, alongside an
// observation purge for the same competitor. Not atomic with it.
func (s *RunLogStore) DeleteByCompetitor(ctx context.Context, competitor string) (int64, error) {
	query := `DELETE FROM competitor_run_logs WHERE competitor = $1`

	result, err := s.db.ExecContext(ctx, query, competitor)
	if err != nil {
		return 0, fmt.Errorf("failed to delete run logs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}

	return rows, nil
}
