// Package app sequences a single portal run and the batch over all portals.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/stock-alert/internal/domain/alert"
	"github.com/FACorreiaa/stock-alert/internal/domain/alert/notify"
	"github.com/FACorreiaa/stock-alert/internal/domain/portal"
	"github.com/FACorreiaa/stock-alert/internal/domain/stock/service"
	"github.com/FACorreiaa/stock-alert/internal/domain/threshold"
	"github.com/FACorreiaa/stock-alert/pkg/metrics"
)

var (
	ErrDailyDirNotFound = errors.New("daily stock directory not found")
	ErrSettingsNotFound = errors.New("settings file not found")
	ErrDelivery         = errors.New("alert delivery failed")
)

// NotifierFactory builds the delivery channels for a settings file. It is
// only called when a run has shortages to report.
type NotifierFactory func(settings *portal.Settings) ([]notify.Notifier, error)

// RunOptions are the inputs of one portal run.
type RunOptions struct {
	DailyDir     string
	SettingsPath string
	// ReportPath, when set, receives the shortages as CSV.
	ReportPath string
	// DryRun renders the message but does not deliver it.
	DryRun bool
}

// RunResult describes a finished run.
type RunResult struct {
	RunID      uuid.UUID
	Portal     string
	Products   int
	Thresholds int
	Shortages  []alert.Shortage
	Message    string
	Delivered  []string
}

// Runner processes one portal directory: aggregate stock, load thresholds,
// compare, notify.
type Runner struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	notifiers NotifierFactory
}

func NewRunner(logger *slog.Logger, notifiers NotifierFactory) *Runner {
	return &Runner{logger: logger, notifiers: notifiers}
}

func (r *Runner) WithMetrics(m *metrics.Metrics) *Runner {
	r.metrics = m
	return r
}

// Run executes a portal run. Configuration and delivery problems are returned
// as errors; everything the ingestion layer can absorb is only logged.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	result := &RunResult{RunID: uuid.New()}
	logger := r.logger.With(slog.String("run_id", result.RunID.String()))

	info, err := os.Stat(opts.DailyDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDailyDirNotFound, opts.DailyDir)
	}
	if _, err := os.Stat(opts.SettingsPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSettingsNotFound, opts.SettingsPath)
	}

	settings, err := portal.Load(opts.SettingsPath)
	if err != nil {
		return nil, err
	}

	name := strings.ToLower(strings.TrimSpace(filepath.Base(filepath.Clean(opts.DailyDir))))
	key, cfg, err := settings.Lookup(name)
	if err != nil {
		return nil, err
	}
	source := cfg.ThresholdSource()
	if source == "" {
		return nil, fmt.Errorf("%w: %s", portal.ErrMissingThresholdSource, key)
	}

	policy, err := alert.ParsePolicy(settings.Alert.Comparator, settings.Alert.MissingThreshold)
	if err != nil {
		return nil, err
	}

	result.Portal = name
	logger = logger.With(slog.String("portal", name))
	if cfg.MappingConflict() {
		logger.Warn("portal sets both tsv_join_mode and mapping, mapping ignored",
			slog.String("settings_key", key),
		)
	}
	logger.Info("run started",
		slog.String("dir", opts.DailyDir),
		slog.String("settings_key", key),
		slog.String("comparator", policy.Comparator.Expression()),
		slog.String("missing_threshold", string(policy.Missing)),
		slog.Bool("join_mode", cfg.JoinMode),
	)

	stock, _ := service.NewStockService(logger).
		WithMetrics(r.metrics).
		WithPortal(name).
		Aggregate(ctx, opts.DailyDir, cfg)
	thresholds := threshold.NewLoader(logger).
		WithMetrics(r.metrics).
		Load(ctx, source, key, cfg)

	result.Products = len(stock)
	result.Thresholds = len(thresholds)
	result.Shortages = alert.Compare(name, stock, thresholds, policy)
	r.metrics.Shortages(name, len(result.Shortages))

	logger.Info("comparison finished",
		slog.Int("products", result.Products),
		slog.Int("thresholds", result.Thresholds),
		slog.Int("shortages", len(result.Shortages)),
	)

	if opts.ReportPath != "" {
		if err := alert.WriteReportFile(opts.ReportPath, result.Shortages); err != nil {
			logger.Warn("failed to write shortage report", slog.Any("error", err))
		}
	}

	if len(result.Shortages) == 0 {
		return result, nil
	}

	renderer, err := notify.LoadRenderer(settings.Chatwork.TemplatePath)
	if err != nil {
		return result, err
	}
	result.Message, err = renderer.Render(settings.Chatwork.MentionMembers, result.Shortages)
	if err != nil {
		return result, err
	}

	if opts.DryRun {
		logger.Info("dry run, alert not sent", slog.Int("shortages", len(result.Shortages)))
		return result, nil
	}

	return result, r.deliver(ctx, logger, settings, result)
}

func (r *Runner) deliver(ctx context.Context, logger *slog.Logger, settings *portal.Settings, result *RunResult) error {
	notifiers, err := r.notifiers(settings)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	var errs []error
	for _, n := range notifiers {
		if err := n.Notify(ctx, result.Message); err != nil {
			r.metrics.Notification(n.Name(), false)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		r.metrics.Notification(n.Name(), true)
		result.Delivered = append(result.Delivered, n.Name())
		logger.Info("alert sent", slog.String("channel", n.Name()))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrDelivery, errors.Join(errs...))
	}
	return nil
}
