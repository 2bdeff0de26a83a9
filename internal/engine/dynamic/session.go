// internal/engine/dynamic/session.go
package dynamic

import (
	"context"
	"sync"
	"time"

	"github.com/law-makers/bounty/internal/engine"
	"github.com/rs/zerolog/log"
)

// BrowserSession owns the single long-lived browser shared by all requests.
// The browser is launched lazily on the first Acquire and kept until Release.
type BrowserSession struct {
	launcher Launcher
	timeout  time.Duration

	mu       sync.Mutex
	browser  engine.Browser
	launches int
}

// NewBrowserSession creates a session that launches browsers with launcher.
// launchTimeout bounds each launch attempt; zero means no bound.
func NewBrowserSession(launcher Launcher, launchTimeout time.Duration) *BrowserSession {
	return &BrowserSession{
		launcher: launcher,
		timeout:  launchTimeout,
	}
}

// Acquire returns the cached browser, launching one if none is present.
// Launches are serialized so concurrent first requests share one browser.
// A failed launch is logged and reported as ENGINE_UNAVAILABLE; the session
// stays empty so a later call can try again.
func (s *BrowserSession) Acquire(ctx context.Context) (engine.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		if alive, ok := s.browser.(interface{ Alive() bool }); ok && !alive.Alive() {
			log.Warn().Msg("Cached browser is gone, relaunching")
			_ = s.browser.Close()
			s.browser = nil
		} else {
			return s.browser, nil
		}
	}

	launchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		launchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	browser, err := s.launcher.Launch(launchCtx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to launch browser")
		return nil, engine.EngineUnavailable(err).AtStage(engine.StageBrowserAcquiring)
	}
	if browser == nil {
		log.Error().Msg("Browser launcher returned no browser")
		return nil, engine.EngineUnavailable(engine.ErrEngineUnavailable).AtStage(engine.StageBrowserAcquiring)
	}

	s.browser = browser
	s.launches++
	log.Info().
		Int("launches", s.launches).
		Dur("elapsed_ms", time.Since(start)).
		Msg("Browser launched")

	return browser, nil
}

// Release closes the browser if present and clears the handle.
// It is idempotent and safe to call from signal handlers.
func (s *BrowserSession) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil {
		return nil
	}

	err := s.browser.Close()
	s.browser = nil
	if err != nil {
		log.Warn().Err(err).Msg("Error closing browser")
		return err
	}

	log.Info().Msg("Browser closed")
	return nil
}

// Active reports whether a browser is currently cached
func (s *BrowserSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browser != nil
}

// Launches returns how many browsers this session has started
func (s *BrowserSession) Launches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launches
}
