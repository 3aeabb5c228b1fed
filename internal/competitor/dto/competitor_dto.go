package dto

import "encoding/json"

type ListDrugsRequest struct {
	Competitor string `form:"competitor" binding:"required"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
	Search     string `form:"search"`
}

type ListDrugsResponse struct {
	Drugs  []ObservationDTO `json:"drugs"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type ObservationDTO struct {
	ObservationID        string          `json:"observation_id"`
	Competitor           string          `json:"competitor"`
	ExternalName         string          `json:"external_name"`
	URL                  *string         `json:"url"`
	Price                *float64        `json:"price"`
	Category             *string         `json:"category"`
	RequiresPrescription *bool           `json:"requires_prescription"`
	RequiresConsultation *bool           `json:"requires_consultation"`
	RawData              json.RawMessage `json:"raw_data,omitempty"`
	MatchedDrugID        *string         `json:"matched_drug_id"`
	MatchedDrugName      *string         `json:"matched_drug_name,omitempty"`
	ScrapedAt            string          `json:"scraped_at"`
	CreatedAt            string          `json:"created_at"`
}

type CompetitorSummaryDTO struct {
	Competitor string     `json:"competitor"`
	Count      int        `json:"count"`
	LatestRun  *RunLogDTO `json:"latest_run"`
}

type RunLogDTO struct {
	RunLogID          string  `json:"run_log_id"`
	Competitor        string  `json:"competitor"`
	Status            string  `json:"status"`
	ObservationsFound int     `json:"observations_found"`
	ErrorMessage      *string `json:"error_message"`
	DurationMs        int64   `json:"duration_ms"`
	CreatedAt         string  `json:"created_at"`
}

// MatchRequest carries the match update; a null drug_id explicitly un-matches.
type MatchRequest struct {
	DrugID *string `json:"drug_id"`
}

type ScrapeResultDTO struct {
	Competitor        string `json:"competitor"`
	Success           bool   `json:"success"`
	ObservationsFound int    `json:"observations_found"`
	Error             string `json:"error,omitempty"`
	DurationMs        int64  `json:"duration_ms"`
}

type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}
