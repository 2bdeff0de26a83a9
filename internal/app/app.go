// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/law-makers/bounty/internal/config"
	"github.com/law-makers/bounty/internal/engine"
	"github.com/law-makers/bounty/internal/engine/dynamic"
	"github.com/law-makers/bounty/internal/engine/selectors"
	"github.com/law-makers/bounty/internal/expiry"
	"github.com/law-makers/bounty/internal/notify"
	"github.com/law-makers/bounty/internal/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds the session state and every dependency of the scrape
// pipeline. It lives for the whole process: one browser session, one store.
//
// Use Close() to release the browser on shutdown.
type Application struct {
	Config     *config.Config
	Logger     *zerolog.Logger
	Session    *dynamic.BrowserSession
	Store      *store.BountyStore
	Classifier *expiry.Classifier
	Extractor  *dynamic.Extractor
	Notifier   *notify.NATSNotifier
	Pipeline   *engine.Pipeline
	closeOnce  sync.Once
	startTime  time.Time
}

// Option customizes New, mainly for tests
type Option func(*options)

type options struct {
	launcher dynamic.Launcher
	chain    selectors.Chain
	now      func() time.Time
}

// WithLauncher replaces the Chrome launcher
func WithLauncher(l dynamic.Launcher) Option {
	return func(o *options) { o.launcher = l }
}

// WithSelectorChain replaces the default selector chain
func WithSelectorChain(c selectors.Chain) Option {
	return func(o *options) { o.chain = c }
}

// WithClock replaces the time source used for expiry
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates the browser session (the browser itself starts on first scrape)
//   - Creates the bounty store and the expiry classifier
//   - Connects the NATS notifier when a NATS url is configured
//   - Wires the scrape pipeline
//
// The browser is not launched here, so New never fails because Chrome is missing.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logger := NewLogger(cfg)
	log.Logger = logger

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	launcher := o.launcher
	if launcher == nil {
		launcher = dynamic.NewChromeLauncher(dynamic.LaunchOptions{
			Headless:   cfg.BrowserHeadless,
			ChromePath: cfg.ChromePath,
			UserAgent:  cfg.UserAgent,
			Proxy:      cfg.Proxy,
			Headers:    cfg.Headers,
		})
	}
	session := dynamic.NewBrowserSession(launcher, cfg.LaunchTimeout)
	logger.Debug().Bool("headless", cfg.BrowserHeadless).Msg("Browser session initialized")

	var classifierOpts []expiry.Option
	if o.now != nil {
		classifierOpts = append(classifierOpts, expiry.WithClock(o.now))
	}
	classifier := expiry.New(loc, classifierOpts...)
	bountyStore := store.New()
	extractor := dynamic.NewExtractor(o.chain, cfg.NavigationTimeout)

	a := &Application{
		Config:     cfg,
		Logger:     &logger,
		Session:    session,
		Store:      bountyStore,
		Classifier: classifier,
		Extractor:  extractor,
		startTime:  time.Now(),
	}

	// A nil *NATSNotifier must not reach the pipeline as a non-nil interface
	var notifier engine.Notifier
	if cfg.NATSURL != "" {
		n, err := notify.Connect(notify.Config{URL: cfg.NATSURL, Subject: cfg.NATSSubject})
		if err != nil {
			return nil, err
		}
		a.Notifier = n
		notifier = n
		logger.Info().Str("subject", cfg.NATSSubject).Msg("NATS notifier connected")
	}

	a.Pipeline = engine.NewPipeline(session, extractor, classifier, bountyStore, notifier)

	logger.Info().Dur("navigation_timeout", cfg.NavigationTimeout).Msg("Application initialized successfully")
	return a, nil
}

// NewLogger builds the zerolog logger described by cfg
func NewLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer
	if cfg.JSONLog {
		w = os.Stderr
	} else {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Close releases the browser and the notifier. It is safe to call more than
// once and from a signal handler; later calls are no-ops.
func (a *Application) Close(ctx context.Context) error {
	var err error
	a.closeOnce.Do(func() {
		a.Logger.Info().Msg("Shutting down application")

		done := make(chan error, 1)
		go func() {
			done <- a.Session.Release()
		}()
		select {
		case err = <-done:
			if err != nil {
				a.Logger.Warn().Err(err).Msg("Error releasing browser")
			}
		case <-ctx.Done():
			err = ctx.Err()
			a.Logger.Warn().Err(err).Msg("Browser release did not finish")
		}

		if a.Notifier != nil {
			if nerr := a.Notifier.Close(); nerr != nil {
				a.Logger.Warn().Err(nerr).Msg("Error closing notifier")
			}
		}

		a.Logger.Info().
			Dur("uptime", a.Uptime()).
			Int("bounties", a.Store.Len()).
			Msg("Application shutdown complete")
	})
	return err
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
