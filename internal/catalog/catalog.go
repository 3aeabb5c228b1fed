// Package catalog is the thin boundary to the canonical drug catalog. The
// catalog itself (CRUD, schema, validation) is owned elsewhere; the pipeline
// only reads drug names to decorate matched observations.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/domain"
	"github.com/cuongbtq/pharma-pricing-be/shared/postgresql"
)

// Drug is the catalog entry slice the pipeline reads.
type Drug struct {
	DrugID    string    `db:"drug_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// Store provides read-only access to the drug catalog
type Store struct {
	db *sqlx.DB
}

// NewStore creates a new catalog Store instance
func NewStore(pg *postgresql.Client) *Store {
	return &Store{
		db: pg.GetDB(),
	}
}

func (s *Store) FindByID(ctx context.Context, drugID string) (*Drug, error) {
	query := `
		SELECT drug_id, name, created_at
		FROM drugs
		WHERE drug_id = $1
	`

	var drug Drug
	err := s.db.GetContext(ctx, &drug, query, drugID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDrugNotFound
		}
		return nil, fmt.Errorf("failed to get drug: %w", err)
	}

	return &drug, nil
}

// NamesByIDs returns a drug_id → name map for the given ids. Unknown ids are
// simply absent from the result.
func (s *Store) NamesByIDs(ctx context.Context, drugIDs []string) (map[string]string, error) {
	if len(drugIDs) == 0 {
		return map[string]string{}, nil
	}

	query := `
		SELECT drug_id, name, created_at
		FROM drugs
		WHERE drug_id = ANY($1)
	`

	drugs := []Drug{}
	if err := s.db.SelectContext(ctx, &drugs, query, pq.Array(drugIDs)); err != nil {
		return nil, fmt.Errorf("failed to get drug names: %w", err)
	}

	names := make(map[string]string, len(drugs))
	for _, d := range drugs {
		names[d.DrugID] = d.Name
	}

	return names, nil
}
