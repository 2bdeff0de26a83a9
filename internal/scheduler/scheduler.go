// Package scheduler runs a scrape job on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job is one scheduled run
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner with a single job.
// Runs never overlap: a tick that arrives while the job is running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	entryID cron.EntryID
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a scheduler evaluating schedules in loc (time.Local when nil)
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule installs job under expr, replacing any previous job.
// expr accepts standard five-field cron expressions and descriptors like "@every 10m".
func (s *Scheduler) Schedule(expr string, job Job) error {
	if job == nil {
		return fmt.Errorf("job is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}

	entryID, err := s.cron.AddFunc(expr, func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			log.Warn().Err(err).Str("schedule", expr).Msg("Scheduled run failed")
			return
		}
		log.Debug().Str("schedule", expr).Dur("elapsed_ms", time.Since(start)).Msg("Scheduled run completed")
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	s.entryID = entryID
	return nil
}

// Next returns the next activation time, zero if nothing is scheduled
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Start begins running the schedule
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.cron.Start()
		s.started = true
	}
}

// Stop halts the schedule, cancels the running job's context and waits for it
// to return. A stopped scheduler is not restarted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()
}
