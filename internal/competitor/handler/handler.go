package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/pharma-pricing-be/internal/catalog"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/model"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/runner"
)

// ObservationStore is the observation persistence contract the handlers use.
type ObservationStore interface {
	FindByCompetitor(ctx context.Context, competitor string, limit, offset int, search string) ([]model.Observation, int, error)
	FindUnmatched(ctx context.Context, competitor string) ([]model.Observation, error)
	FindByID(ctx context.Context, observationID string) (*model.Observation, error)
	UpdateMatch(ctx context.Context, observationID string, drugID *string) error
	DeleteByCompetitor(ctx context.Context, competitor string) (int64, error)
	ListCompetitorsWithCounts(ctx context.Context) ([]model.CompetitorCount, error)
}

// RunLogStore is the run log persistence contract the handlers use.
type RunLogStore interface {
	FindRecent(ctx context.Context, limit int) ([]model.RunLog, error)
	FindByCompetitor(ctx context.Context, competitor string, limit int) ([]model.RunLog, error)
	FindLatestByCompetitor(ctx context.Context) (map[string]model.RunLog, error)
	DeleteByCompetitor(ctx context.Context, competitor string) (int64, error)
}

// CatalogLookup resolves matched drug ids against the canonical catalog.
type CatalogLookup interface {
	FindByID(ctx context.Context, drugID string) (*catalog.Drug, error)
	NamesByIDs(ctx context.Context, drugIDs []string) (map[string]string, error)
}

// PipelineRunner triggers one synchronous scrape run.
type PipelineRunner interface {
	Run(ctx context.Context, competitor string) (*runner.Result, error)
}

// ScraperRegistry lists the registered competitor tokens.
type ScraperRegistry interface {
	Competitors() []string
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	Observations ObservationStore
	RunLogs      RunLogStore
	Catalog      CatalogLookup
	Runner       PipelineRunner
	Registry     ScraperRegistry
}

// CompetitorHandler handles competitor pipeline HTTP requests
type CompetitorHandler struct {
	logger       *slog.Logger
	observations ObservationStore
	runLogs      RunLogStore
	catalog      CatalogLookup
	runner       PipelineRunner
	registry     ScraperRegistry
}

// NewCompetitorHandler creates a new CompetitorHandler instance
func NewCompetitorHandler(deps *Dependencies) *CompetitorHandler {
	return &CompetitorHandler{
		logger:       deps.Logger,
		observations: deps.Observations,
		runLogs:      deps.RunLogs,
		catalog:      deps.Catalog,
		runner:       deps.Runner,
		registry:     deps.Registry,
	}
}
