package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/stock-alert/internal/domain/portal"
	"github.com/FACorreiaa/stock-alert/pkg/archive"
	"github.com/FACorreiaa/stock-alert/pkg/metrics"
)

// PortalRunner runs the single-portal entry point for one directory.
type PortalRunner interface {
	RunPortal(ctx context.Context, dailyDir, settingsPath string) error
}

// ExecRunner starts the single-portal binary as a child process, so a crash
// or hang in one portal cannot affect the next.
type ExecRunner struct {
	Binary string
	Stdout io.Writer
	Stderr io.Writer
}

// PortalExitError is returned when the child process exits non-zero.
type PortalExitError struct {
	Code int
}

func (e *PortalExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func (r *ExecRunner) RunPortal(ctx context.Context, dailyDir, settingsPath string) error {
	cmd := exec.CommandContext(ctx, r.Binary, dailyDir, settingsPath)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &PortalExitError{Code: exitErr.ExitCode()}
	}
	return err
}

// BatchOptions select what a batch processes. An empty BaseDir means the
// latest daily directory of the archive.
type BatchOptions struct {
	BaseDir      string
	SettingsPath string
}

// PortalOutcome is the result of one portal in a batch.
type PortalOutcome struct {
	Portal   string
	Dir      string
	Err      error
	Duration time.Duration
}

// BatchSummary aggregates the outcomes of a batch.
type BatchSummary struct {
	RunID    uuid.UUID
	BaseDir  string
	Outcomes []PortalOutcome
}

// Failed counts the portals whose run returned an error.
func (s *BatchSummary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Batch runs every configured portal found in a daily directory, one at a
// time, and keeps going when one of them fails.
type Batch struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	archive *archive.Local
	runner  PortalRunner
}

func NewBatch(logger *slog.Logger, arch *archive.Local, runner PortalRunner) *Batch {
	return &Batch{logger: logger, archive: arch, runner: runner}
}

func (b *Batch) WithMetrics(m *metrics.Metrics) *Batch {
	b.metrics = m
	return b
}

// Run processes the portals. Errors are returned only when the batch cannot
// start; portal failures are reported in the summary.
func (b *Batch) Run(ctx context.Context, opts BatchOptions) (*BatchSummary, error) {
	summary := &BatchSummary{RunID: uuid.New(), BaseDir: opts.BaseDir}
	logger := b.logger.With(slog.String("batch_id", summary.RunID.String()))

	if summary.BaseDir == "" {
		latest, err := b.archive.Latest()
		if err != nil {
			return nil, err
		}
		summary.BaseDir = latest
		logger.Info("no base directory given, using latest daily directory", slog.String("dir", latest))
	}

	if _, err := os.Stat(opts.SettingsPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSettingsNotFound, opts.SettingsPath)
	}
	settings, err := portal.Load(opts.SettingsPath)
	if err != nil {
		return nil, err
	}

	dirs, err := archive.PortalDirs(summary.BaseDir, settings.Targets())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDailyDirNotFound, err)
	}
	logger.Info("batch started",
		slog.String("dir", summary.BaseDir),
		slog.Int("portals", len(dirs)),
	)

	for _, dir := range dirs {
		if ctx.Err() != nil {
			logger.Warn("batch cancelled", slog.Any("error", ctx.Err()))
			break
		}

		logger.Info("portal started", slog.String("portal", dir.Name))
		start := time.Now()
		err := b.runner.RunPortal(ctx, dir.Path, opts.SettingsPath)
		outcome := PortalOutcome{Portal: dir.Name, Dir: dir.Path, Err: err, Duration: time.Since(start)}
		summary.Outcomes = append(summary.Outcomes, outcome)
		b.metrics.PortalRun(dir.Portal, err == nil)

		if err != nil {
			logger.Warn("portal run failed",
				slog.String("portal", dir.Name),
				slog.Any("error", err),
			)
			continue
		}
		logger.Info("portal finished",
			slog.String("portal", dir.Name),
			slog.Duration("duration", outcome.Duration),
		)
	}

	logger.Info("all portals processed",
		slog.Int("portals", len(summary.Outcomes)),
		slog.Int("failed", summary.Failed()),
	)
	return summary, nil
}
