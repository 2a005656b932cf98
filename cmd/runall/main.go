// Command runall runs stockalert for every configured portal directory of a
// daily archive directory, one portal at a time.
//
//	runall [-schedule "0 6 * * *"] [-bin path] [base_dir] [setting.json]
//
// Without base_dir the latest yyyy-MM-dd directory under STOCK_ARCHIVE_ROOT
// is used. With -schedule the batch repeats on that cron expression.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/FACorreiaa/stock-alert/internal/app"
	"github.com/FACorreiaa/stock-alert/pkg/archive"
	"github.com/FACorreiaa/stock-alert/pkg/config"
	"github.com/FACorreiaa/stock-alert/pkg/cron"
	"github.com/FACorreiaa/stock-alert/pkg/logger"
	"github.com/FACorreiaa/stock-alert/pkg/metrics"
)

const batchTimeout = 2 * time.Hour

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	schedule := flag.String("schedule", cfg.Batch.Schedule, "cron expression; run once when empty")
	binary := flag.String("bin", cfg.Batch.Binary, "stockalert executable (default: next to runall)")
	flag.Parse()

	log := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	opts := app.BatchOptions{SettingsPath: cfg.Settings.Path}
	if flag.NArg() > 0 {
		opts.BaseDir = flag.Arg(0)
	}
	if flag.NArg() > 1 {
		opts.SettingsPath = flag.Arg(1)
	}

	bin := *binary
	if bin == "" {
		bin = siblingBinary("stockalert")
	}

	m := metrics.New()
	batch := app.NewBatch(log, archive.NewLocal(cfg.Batch.ArchiveRoot), &app.ExecRunner{Binary: bin}).
		WithMetrics(m)

	job := func(ctx context.Context) error {
		summary, err := batch.Run(ctx, opts)
		if err != nil {
			return err
		}
		if err := m.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			log.Warn("failed to write metrics textfile", slog.Any("error", err))
		}
		for _, o := range summary.Outcomes {
			if o.Err != nil {
				fmt.Fprintf(os.Stderr, "warning: portal %q failed (%v)\n", o.Portal, o.Err)
			}
		}
		fmt.Println("all portals processed.")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *schedule == "" {
		if err := job(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	scheduler := cron.NewScheduler(job, batchTimeout, log)
	if err := scheduler.Start(*schedule); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid schedule %q: %v\n", *schedule, err)
		return 1
	}
	<-ctx.Done()
	<-scheduler.Stop().Done()
	return 0
}

// siblingBinary returns name in the directory of the running executable,
// falling back to a PATH lookup by name.
func siblingBinary(name string) string {
	exe, err := os.Executable()
	if err != nil {
		return name
	}
	path := filepath.Join(filepath.Dir(exe), name)
	if _, err := os.Stat(path); err != nil {
		return name
	}
	return path
}
