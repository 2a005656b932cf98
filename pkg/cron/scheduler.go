// Package cron runs the portal batch on a schedule using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a single job on a cron expression. Runs never overlap: a
// tick that fires while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	job     Job
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler. timeout bounds each run; zero means none.
func NewScheduler(job Job, timeout time.Duration, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:    c,
		job:     job,
		timeout: timeout,
		logger:  logger,
	}
}

// Start registers the job on spec and starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunNow); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", spec),
		slog.Time("next_run", s.cron.Entries()[0].Next),
	)
	return nil
}

// Stop stops scheduling; the returned context is done when a running job
// has finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow runs the job synchronously unless a run is already in progress.
func (s *Scheduler) RunNow() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("previous run still in progress, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled run failed", slog.Any("error", err), slog.Duration("duration", time.Since(start)))
		return
	}
	s.logger.Info("scheduled run completed", slog.Duration("duration", time.Since(start)))
}
