package session

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/domain"
)

func newTestSession(paceInterval time.Duration) *Session {
	return New(&Config{
		UserAgent:         "test-agent",
		ViewportWidth:     1280,
		ViewportHeight:    800,
		NavigationTimeout: 10 * time.Second,
		PaceInterval:      paceInterval,
		Headless:          true,
	}, slog.Default())
}

func TestSession_ReleaseIsIdempotent(t *testing.T) {
	s := newTestSession(0)

	// Releasing a never-acquired session is a no-op, not a panic or error
	s.Release()
	s.Release()
}

func TestSession_AcquireAfterRelease(t *testing.T) {
	s := newTestSession(0)
	s.Release()

	page, err := s.Acquire()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.Nil(t, page)
}

func TestSession_Pace(t *testing.T) {
	tests := []struct {
		name         string
		paceInterval time.Duration
		duration     time.Duration
		wantAtLeast  time.Duration
	}{
		{
			name:        "explicit duration",
			duration:    20 * time.Millisecond,
			wantAtLeast: 20 * time.Millisecond,
		},
		{
			name:         "falls back to configured interval",
			paceInterval: 20 * time.Millisecond,
			duration:     0,
			wantAtLeast:  20 * time.Millisecond,
		},
		{
			name:         "no interval configured means no delay",
			paceInterval: 0,
			duration:     0,
			wantAtLeast:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(tt.paceInterval)

			start := time.Now()
			err := s.Pace(context.Background(), tt.duration)
			elapsed := time.Since(start)

			require.NoError(t, err)
			assert.GreaterOrEqual(t, elapsed, tt.wantAtLeast)
		})
	}
}

func TestSession_PaceCanceledContext(t *testing.T) {
	s := newTestSession(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := s.Pace(ctx, 5*time.Second)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
