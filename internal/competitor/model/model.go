package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Observation is one scraped competitor listing. Rows are immutable after
// insert except for MatchedDrugID, which the matching workflow updates.
type Observation struct {
	ObservationID        string         `db:"observation_id"`
	Competitor           string         `db:"competitor"`
	ExternalName         string         `db:"external_name"`
	URL                  *string        `db:"url"`
	Price                *float64       `db:"price"`
	Category             *string        `db:"category"`
	RequiresPrescription *bool          `db:"requires_prescription"`
	RequiresConsultation *bool          `db:"requires_consultation"`
	RawData              types.JSONText `db:"raw_data"`
	MatchedDrugID        *string        `db:"matched_drug_id"`
	ScrapedAt            time.Time      `db:"scraped_at"`
	CreatedAt            time.Time      `db:"created_at"`
}

// RunLog is the append-only audit record of one scrape run.
type RunLog struct {
	RunLogID          string    `db:"run_log_id"`
	Competitor        string    `db:"competitor"`
	Status            string    `db:"status"`
	ObservationsFound int       `db:"observations_found"`
	ErrorMessage      *string   `db:"error_message"`
	DurationMs        int64     `db:"duration_ms"`
	CreatedAt         time.Time `db:"created_at"`
}

// CompetitorCount pairs a competitor token with its stored observation count.
type CompetitorCount struct {
	Competitor string `db:"competitor"`
	Count      int    `db:"count"`
}
