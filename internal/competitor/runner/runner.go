package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/domain"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/model"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/scrape"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/session"
)

// ObservationWriter is the slice of the observation store the runner needs.
type ObservationWriter interface {
	Insert(ctx context.Context, obs *model.Observation) error
}

// RunLogWriter is the slice of the run log store the runner needs.
type RunLogWriter interface {
	Insert(ctx context.Context, log *model.RunLog) error
}

// JobResolver resolves a competitor token to a fresh job instance.
type JobResolver interface {
	Resolve(competitor string) (scrape.Job, error)
}

// Result is what a triggering caller gets back from one run. A failed run is
// an expected operational outcome, not an error: the only error Run itself
// returns is an unknown competitor token.
type Result struct {
	Competitor        string
	Success           bool
	ObservationsFound int
	Error             string
	Duration          time.Duration
}

// Config holds runner dependencies
type Config struct {
	Logger       *slog.Logger
	Registry     JobResolver
	Observations ObservationWriter
	RunLogs      RunLogWriter
	Session      *session.Config
}

// Runner executes one scrape job end-to-end: initialize, extract, persist,
// log the outcome, tear down.
type Runner struct {
	logger       *slog.Logger
	registry     JobResolver
	observations ObservationWriter
	runLogs      RunLogWriter
	sessionCfg   *session.Config
}

// NewRunner creates a new Runner instance
func NewRunner(cfg *Config) *Runner {
	return &Runner{
		logger:       cfg.Logger,
		registry:     cfg.Registry,
		observations: cfg.Observations,
		runLogs:      cfg.RunLogs,
		sessionCfg:   cfg.Session,
	}
}

// Run executes the pipeline for one competitor. Job-level failures never
// escape: initialize, extract, and persist errors are all folded into the
// returned Result and the run's log row. Exactly one run log row is written
// per invocation, and Teardown is invoked exactly once.
func (r *Runner) Run(ctx context.Context, competitor string) (*Result, error) {
	job, err := r.registry.Resolve(competitor)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	scrapedAt := start.UTC()

	logger := r.logger.With(slog.String("competitor", competitor))
	sess := session.New(r.sessionCfg, logger)

	logger.Info("Starting scrape run")

	defer func() {
		// Teardown failures are logged but never override the run's
		// already-decided status.
		if err := job.Teardown(ctx); err != nil {
			logger.Warn("Job teardown failed", slog.Any("error", err))
		}
		// Backstop in case the job never released its session.
		sess.Release()
	}()

	var runErr error
	written := 0

	env := scrape.Env{Logger: logger, Session: sess}
	if err := job.Initialize(ctx, env); err != nil {
		runErr = fmt.Errorf("initialize: %w", err)
	} else {
		listings, err := job.Extract(ctx)
		if err != nil {
			runErr = fmt.Errorf("extract: %w", err)
		}

		// Listings produced before an extraction failure still get persisted.
		written, err = r.persist(ctx, competitor, scrapedAt, listings)
		if err != nil && runErr == nil {
			runErr = fmt.Errorf("persist: %w", err)
		}
	}

	result := &Result{
		Competitor:        competitor,
		Success:           runErr == nil,
		ObservationsFound: written,
		Duration:          time.Since(start),
	}

	logRow := &model.RunLog{
		RunLogID:          uuid.New().String(),
		Competitor:        competitor,
		Status:            domain.RunStatusSuccess,
		ObservationsFound: written,
		DurationMs:        result.Duration.Milliseconds(),
		CreatedAt:         time.Now().UTC(),
	}

	if runErr != nil {
		result.Error = runErr.Error()
		logRow.Status = domain.RunStatusFailed
		logRow.ErrorMessage = &result.Error

		logger.Error("Scrape run failed",
			slog.Int("observations_found", written),
			slog.String("error", result.Error),
		)
	} else {
		logger.Info("Scrape run completed",
			slog.Int("observations_found", written),
			slog.Duration("duration", result.Duration),
		)
	}

	if err := r.runLogs.Insert(ctx, logRow); err != nil {
		logger.Error("Failed to write run log", slog.Any("error", err))
	}

	return result, nil
}

// persist writes one observation row per non-blank listing, all stamped with
// the run's shared scrapedAt so the cohort is identifiable. Returns how many
// rows were written; stops at the first store error.
func (r *Runner) persist(ctx context.Context, competitor string, scrapedAt time.Time, listings []scrape.Listing) (int, error) {
	written := 0
	for _, l := range listings {
		if strings.TrimSpace(l.ExternalName) == "" {
			continue
		}

		obs := &model.Observation{
			ObservationID:        uuid.New().String(),
			Competitor:           competitor,
			ExternalName:         l.ExternalName,
			URL:                  l.URL,
			Price:                l.Price,
			Category:             l.Category,
			RequiresPrescription: l.RequiresPrescription,
			RequiresConsultation: l.RequiresConsultation,
			ScrapedAt:            scrapedAt,
			CreatedAt:            time.Now().UTC(),
		}

		if l.RawData != nil {
			raw, err := json.Marshal(l.RawData)
			if err != nil {
				return written, fmt.Errorf("failed to encode raw data: %w", err)
			}
			obs.RawData = raw
		}

		if err := r.observations.Insert(ctx, obs); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
