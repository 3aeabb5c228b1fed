package scrape

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/session"
)

// Listing is one observation-shaped record produced by a job's Extract step.
// ExternalName is the only required field; listings with a blank name are
// skipped at persist time.
type Listing struct {
	ExternalName         string
	URL                  *string
	Price                *float64
	Category             *string
	RequiresPrescription *bool
	RequiresConsultation *bool
	RawData              map[string]interface{}
}

// Env carries the capabilities injected into a job for one run. Jobs must not
// log to stdout directly or open their own browser sessions.
type Env struct {
	Logger  *slog.Logger
	Session *session.Session
}

// Job is the contract every competitor scraper implements.
//
// The run coordinator guarantees Teardown is called exactly once per run, no
// matter how Initialize or Extract terminate. Implementations are single-use:
// the registry constructs a fresh instance for every run.
type Job interface {
	// Competitor returns the stable uppercase token identifying the source.
	Competitor() string

	// Initialize acquires per-run state (typically a browser page through
	// env.Session). A failure aborts the run before any extraction.
	Initialize(ctx context.Context, env Env) error

	// Extract produces the finite listing sequence. Returning an empty slice
	// is a successful run with zero observations. On failure partway through,
	// implementations should return the listings produced so far together
	// with the error; those are still persisted.
	Extract(ctx context.Context) ([]Listing, error)

	// Teardown releases resources acquired in Initialize. It must be safe to
	// call even if Initialize failed partway.
	Teardown(ctx context.Context) error
}
