package main

import (
	"log/slog"

	"github.com/FACorreiaa/stock-alert/internal/app"
	"github.com/FACorreiaa/stock-alert/pkg/config"
	"github.com/FACorreiaa/stock-alert/pkg/metrics"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	Runner *app.Runner
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) *Dependencies {
	d := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	d.Runner = app.NewRunner(d.Logger, newNotifierFactory(d.Config, d.Logger)).
		WithMetrics(d.Metrics)

	d.Logger.Debug("dependencies initialized")
	return d
}

// Cleanup flushes the metrics textfile when one is configured.
func (d *Dependencies) Cleanup() {
	if err := d.Metrics.WriteTextfile(d.Config.Metrics.TextfilePath); err != nil {
		d.Logger.Warn("failed to write metrics textfile", slog.Any("error", err))
	}
}
