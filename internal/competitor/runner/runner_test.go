package runner

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/domain"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/model"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/scrape"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/session"
)

type fakeJob struct {
	token string

	initErr     error
	listings    []scrape.Listing
	extractErr  error
	teardownErr error

	initCalls     int
	extractCalls  int
	teardownCalls int
}

func (j *fakeJob) Competitor() string { return j.token }

func (j *fakeJob) Initialize(ctx context.Context, env scrape.Env) error {
	j.initCalls++
	return j.initErr
}

func (j *fakeJob) Extract(ctx context.Context) ([]scrape.Listing, error) {
	j.extractCalls++
	return j.listings, j.extractErr
}

func (j *fakeJob) Teardown(ctx context.Context) error {
	j.teardownCalls++
	return j.teardownErr
}

type fakeResolver struct {
	job *fakeJob
}

func (r *fakeResolver) Resolve(competitor string) (scrape.Job, error) {
	if r.job == nil || r.job.token != competitor {
		return nil, domain.ErrUnknownCompetitor
	}
	return r.job, nil
}

type fakeObservationStore struct {
	rows    []*model.Observation
	failAt  int // fail the nth insert (1-based); 0 means never
	callNum int
}

func (s *fakeObservationStore) Insert(ctx context.Context, obs *model.Observation) error {
	s.callNum++
	if s.failAt > 0 && s.callNum >= s.failAt {
		return errors.New("connection refused")
	}
	s.rows = append(s.rows, obs)
	return nil
}

type fakeRunLogStore struct {
	rows []*model.RunLog
	err  error
}

func (s *fakeRunLogStore) Insert(ctx context.Context, log *model.RunLog) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, log)
	return nil
}

func newTestRunner(job *fakeJob, obs *fakeObservationStore, logs *fakeRunLogStore) *Runner {
	return NewRunner(&Config{
		Logger:       slog.Default(),
		Registry:     &fakeResolver{job: job},
		Observations: obs,
		RunLogs:      logs,
		Session: &session.Config{
			UserAgent:         "test-agent",
			ViewportWidth:     1280,
			ViewportHeight:    800,
			NavigationTimeout: time.Second,
			Headless:          true,
		},
	})
}

func strPtr(s string) *string { return &s }

func TestRunner_Run(t *testing.T) {
	tests := []struct {
		name        string
		job         *fakeJob
		obsStore    *fakeObservationStore
		wantSuccess bool
		wantWritten int
		wantErrPart string
	}{
		{
			name: "successful run with blank names skipped",
			job: &fakeJob{
				token: "ACME",
				listings: []scrape.Listing{
					{ExternalName: "Aspirin 500mg", Price: floatPtr(4.99)},
					{ExternalName: "   "},
					{ExternalName: "Ibuprofen 400mg", URL: strPtr("https://acme.example/ibu")},
				},
			},
			obsStore:    &fakeObservationStore{},
			wantSuccess: true,
			wantWritten: 2,
		},
		{
			name: "zero listings is success",
			job: &fakeJob{
				token: "ACME",
			},
			obsStore:    &fakeObservationStore{},
			wantSuccess: true,
			wantWritten: 0,
		},
		{
			name: "initialize failure aborts before extraction",
			job: &fakeJob{
				token:   "ACME",
				initErr: errors.New("browser launch failed"),
			},
			obsStore:    &fakeObservationStore{},
			wantSuccess: false,
			wantWritten: 0,
			wantErrPart: "initialize: browser launch failed",
		},
		{
			name: "extraction failure keeps partial listings",
			job: &fakeJob{
				token: "ACME",
				listings: []scrape.Listing{
					{ExternalName: "Aspirin 500mg"},
				},
				extractErr: errors.New("selector not found"),
			},
			obsStore:    &fakeObservationStore{},
			wantSuccess: false,
			wantWritten: 1,
			wantErrPart: "extract: selector not found",
		},
		{
			name: "persistence failure stops at failing row",
			job: &fakeJob{
				token: "ACME",
				listings: []scrape.Listing{
					{ExternalName: "Aspirin 500mg"},
					{ExternalName: "Ibuprofen 400mg"},
					{ExternalName: "Paracetamol 500mg"},
				},
			},
			obsStore:    &fakeObservationStore{failAt: 2},
			wantSuccess: false,
			wantWritten: 1,
			wantErrPart: "persist: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logStore := &fakeRunLogStore{}
			r := newTestRunner(tt.job, tt.obsStore, logStore)

			result, err := r.Run(context.Background(), "ACME")
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantWritten, result.ObservationsFound)
			assert.Len(t, tt.obsStore.rows, tt.wantWritten)

			// Exactly one run log row per invocation
			require.Len(t, logStore.rows, 1)
			logRow := logStore.rows[0]
			assert.Equal(t, "ACME", logRow.Competitor)
			assert.Equal(t, tt.wantWritten, logRow.ObservationsFound)

			if tt.wantSuccess {
				assert.Equal(t, domain.RunStatusSuccess, logRow.Status)
				assert.Nil(t, logRow.ErrorMessage)
				assert.Empty(t, result.Error)
			} else {
				assert.Equal(t, domain.RunStatusFailed, logRow.Status)
				require.NotNil(t, logRow.ErrorMessage)
				assert.Contains(t, *logRow.ErrorMessage, tt.wantErrPart)
				assert.Contains(t, result.Error, tt.wantErrPart)
			}

			// Teardown is invoked exactly once on every exit path
			assert.Equal(t, 1, tt.job.teardownCalls)
		})
	}
}

func TestRunner_TeardownSkippedExtraction(t *testing.T) {
	job := &fakeJob{
		token:   "ACME",
		initErr: errors.New("no browser"),
	}
	r := newTestRunner(job, &fakeObservationStore{}, &fakeRunLogStore{})

	_, err := r.Run(context.Background(), "ACME")
	require.NoError(t, err)

	assert.Equal(t, 1, job.initCalls)
	assert.Equal(t, 0, job.extractCalls)
	assert.Equal(t, 1, job.teardownCalls)
}

func TestRunner_TeardownErrorDoesNotOverrideStatus(t *testing.T) {
	job := &fakeJob{
		token: "ACME",
		listings: []scrape.Listing{
			{ExternalName: "Aspirin 500mg"},
		},
		teardownErr: errors.New("page already closed"),
	}
	logStore := &fakeRunLogStore{}
	r := newTestRunner(job, &fakeObservationStore{}, logStore)

	result, err := r.Run(context.Background(), "ACME")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	require.Len(t, logStore.rows, 1)
	assert.Equal(t, domain.RunStatusSuccess, logStore.rows[0].Status)
}

func TestRunner_UnknownCompetitor(t *testing.T) {
	logStore := &fakeRunLogStore{}
	r := newTestRunner(&fakeJob{token: "ACME"}, &fakeObservationStore{}, logStore)

	result, err := r.Run(context.Background(), "BOGUS")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownCompetitor)
	assert.Nil(t, result)
	// No run log row for a run that never started
	assert.Empty(t, logStore.rows)
}

func TestRunner_SharedScrapedAtCohort(t *testing.T) {
	job := &fakeJob{
		token: "ACME",
		listings: []scrape.Listing{
			{ExternalName: "Aspirin 500mg"},
			{ExternalName: "Ibuprofen 400mg"},
			{ExternalName: "Paracetamol 500mg"},
		},
	}
	obsStore := &fakeObservationStore{}
	r := newTestRunner(job, obsStore, &fakeRunLogStore{})

	_, err := r.Run(context.Background(), "ACME")
	require.NoError(t, err)

	require.Len(t, obsStore.rows, 3)
	for _, row := range obsStore.rows {
		assert.Equal(t, obsStore.rows[0].ScrapedAt, row.ScrapedAt)
		assert.Equal(t, "ACME", row.Competitor)
		assert.Nil(t, row.MatchedDrugID)
		assert.NotEmpty(t, row.ObservationID)
	}
}

func TestRunner_RunLogWriteFailureStillReturnsResult(t *testing.T) {
	job := &fakeJob{
		token: "ACME",
		listings: []scrape.Listing{
			{ExternalName: "Aspirin 500mg"},
		},
	}
	r := newTestRunner(job, &fakeObservationStore{}, &fakeRunLogStore{err: errors.New("disk full")})

	result, err := r.Run(context.Background(), "ACME")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ObservationsFound)
}

func floatPtr(f float64) *float64 { return &f }
