package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/domain"
)

// Config holds browser session configuration
type Config struct {
	UserAgent         string
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
	PaceInterval      time.Duration
	Headless          bool
}

// Session wraps one headless Chromium session: a playwright driver, a browser
// process, an isolated context, and a single page. One session is acquired per
// run and released exactly once; Release is idempotent.
type Session struct {
	config *Config
	logger *slog.Logger

	pw         *playwright.Playwright
	browser    playwright.Browser
	browserCtx playwright.BrowserContext
	page       playwright.Page
	released   bool
}

// New creates an unacquired session. The browser is not launched until
// Acquire is called.
func New(config *Config, logger *slog.Logger) *Session {
	return &Session{
		config: config,
		logger: logger,
	}
}

// Acquire launches the browser and returns a page with the configured user
// agent, viewport, and navigation timeout applied. On any failure the
// partially acquired resources are released.
func (s *Session) Acquire() (playwright.Page, error) {
	if s.released {
		return nil, domain.ErrSessionClosed
	}
	if s.page != nil {
		return s.page, nil
	}

	s.logger.Debug("Launching browser session",
		slog.String("user_agent", s.config.UserAgent),
		slog.Bool("headless", s.config.Headless),
	)

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	s.pw = pw

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.config.Headless),
	})
	if err != nil {
		s.Release()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	s.browser = browser

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(s.config.UserAgent),
		Viewport: &playwright.Size{
			Width:  s.config.ViewportWidth,
			Height: s.config.ViewportHeight,
		},
	})
	if err != nil {
		s.Release()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	s.browserCtx = browserCtx

	page, err := browserCtx.NewPage()
	if err != nil {
		s.Release()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultNavigationTimeout(float64(s.config.NavigationTimeout.Milliseconds()))
	page.SetDefaultTimeout(float64(s.config.NavigationTimeout.Milliseconds()))

	s.page = page
	return page, nil
}

// Release closes everything acquired so far, innermost first. Safe to call
// on a never-acquired or already-released session.
func (s *Session) Release() {
	if s.released {
		return
	}
	s.released = true

	if s.page != nil {
		if err := s.page.Close(); err != nil {
			s.logger.Warn("Failed to close page", slog.Any("error", err))
		}
		s.page = nil
	}
	if s.browserCtx != nil {
		if err := s.browserCtx.Close(); err != nil {
			s.logger.Warn("Failed to close browser context", slog.Any("error", err))
		}
		s.browserCtx = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.logger.Warn("Failed to close browser", slog.Any("error", err))
		}
		s.browser = nil
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			s.logger.Warn("Failed to stop playwright", slog.Any("error", err))
		}
		s.pw = nil
	}
}

// Pace sleeps between requests to the same host. A non-positive duration
// falls back to the configured pace interval. Returns early with the context
// error if the context is canceled.
func (s *Session) Pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		d = s.config.PaceInterval
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
