package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/domain"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/model"
	"github.com/cuongbtq/pharma-pricing-be/shared/postgresql"
)

const observationColumns = `
	observation_id, competitor, external_name, url, price, category,
	requires_prescription, requires_consultation, raw_data,
	matched_drug_id, scraped_at, created_at
`

// ObservationStore handles all database operations for scraped observations
type ObservationStore struct {
	db *sqlx.DB
}

// NewObservationStore creates a new ObservationStore instance
func NewObservationStore(pg *postgresql.Client) *ObservationStore {
	return &ObservationStore{
		db: pg.GetDB(),
	}
}

func (s *ObservationStore) Insert(ctx context.Context, obs *model.Observation) error {
	query := `
		INSERT INTO competitor_observations (
			observation_id, competitor, external_name, url, price, category,
			requires_prescription, requires_consultation, raw_data,
			matched_drug_id, scraped_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		obs.ObservationID,
		obs.Competitor,
		obs.ExternalName,
		obs.URL,
		obs.Price,
		obs.Category,
		obs.RequiresPrescription,
		obs.RequiresConsultation,
		obs.RawData,
		obs.MatchedDrugID,
		obs.ScrapedAt,
		obs.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}

	return nil
}

func (s *ObservationStore) FindByID(ctx context.Context, observationID string) (*model.Observation, error) {
	query := `
		SELECT ` + observationColumns + `
		FROM competitor_observations
		WHERE observation_id = $1
	`

	var obs model.Observation
	err := s.db.GetContext(ctx, &obs, query, observationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrObservationNotFound
		}
		return nil, fmt.Errorf("failed to get observation: %w", err)
	}

	return &obs, nil
}

// FindByCompetitor returns one page of a competitor's observations plus the
// total count under the same predicate, so pagination stays internally
// consistent. Blank-name rows are always excluded; search matches
// external_name or category case-insensitively.
func (s *ObservationStore) FindByCompetitor(ctx context.Context, competitor string, limit, offset int, search string) ([]model.Observation, int, error) {
	where := ` WHERE competitor = $1 AND btrim(external_name) <> ''`
	args := []interface{}{competitor}

	if search != "" {
		where += ` AND (external_name ILIKE $2 OR category ILIKE $2)`
		args = append(args, "%"+search+"%")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM competitor_observations` + where
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count observations: %w", err)
	}

	query := `
		SELECT ` + observationColumns + `
		FROM competitor_observations` + where + `
		ORDER BY external_name ASC
	`
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	observations := []model.Observation{}
	if err := s.db.SelectContext(ctx, &observations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list observations: %w", err)
	}

	return observations, total, nil
}

// FindUnmatched returns all observations without a catalog match, ordered by
// competitor then name. An empty competitor means all competitors.
func (s *ObservationStore) FindUnmatched(ctx context.Context, competitor string) ([]model.Observation, error) {
	query := `
		SELECT ` + observationColumns + `
		FROM competitor_observations
		WHERE matched_drug_id IS NULL AND btrim(external_name) <> ''
	`
	args := []interface{}{}

	if competitor != "" {
		query += ` AND competitor = $1`
		args = append(args, competitor)
	}

	query += ` ORDER BY competitor ASC, external_name ASC`

	observations := []model.Observation{}
	if err := s.db.SelectContext(ctx, &observations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list unmatched observations: %w", err)
	}

	return observations, nil
}

// UpdateMatch sets or clears the observation's catalog link; a nil drugID
// explicitly un-matches. This is the only field ever updated post-insert.
func (s *ObservationStore) UpdateMatch(ctx context.Context, observationID string, drugID *string) error {
	query := `
		UPDATE competitor_observations
		SET matched_drug_id = $2
		WHERE observation_id = $1
	`

	result, err := s.db.ExecContext(ctx, query, observationID, drugID)
	if err != nil {
		return fmt.Errorf("failed to update observation match: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return domain.ErrObservationNotFound
	}

	return nil
}

// DeleteByCompetitor purges all of one competitor's observations and returns
// how many rows were deleted. Observations are never deleted individually.
func (s *ObservationStore) DeleteByCompetitor(ctx context.Context, competitor string) (int64, error) {
	query := `DELETE FROM competitor_observations WHERE competitor = $1`

	result, err := s.db.ExecContext(ctx, query, competitor)
	if err != nil {
		return 0, fmt.Errorf("failed to delete observations: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}

	return rows, nil
}

func (s *ObservationStore) ListCompetitorsWithCounts(ctx context.Context) ([]model.CompetitorCount, error) {
	query := `
		SELECT competitor, COUNT(*) AS count
		FROM competitor_observations
		WHERE btrim(external_name) <> ''
		GROUP BY competitor
		ORDER BY competitor ASC
	`

	counts := []model.CompetitorCount{}
	if err := s.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to list competitor counts: %w", err)
	}

	return counts, nil
}
