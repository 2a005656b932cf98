// Command stockalert checks one portal's daily stock export against its
// minimum stock thresholds and posts an alert when products run low.
//
//	stockalert [-report file] [-dry-run] <daily_stock_dir> [setting.json]
//
// The last element of daily_stock_dir names the portal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/FACorreiaa/stock-alert/internal/app"
	"github.com/FACorreiaa/stock-alert/pkg/config"
	"github.com/FACorreiaa/stock-alert/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	report := flag.String("report", "", "write shortages as CSV to this file")
	dryRun := flag.Bool("dry-run", false, "render the alert without sending it")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: stockalert [flags] <daily_stock_dir> [setting.json]")
		fmt.Fprintln(flag.CommandLine.Output(), `  e.g. stockalert "/archive/2025-10-10/Amazon"`)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		return 1
	}

	cfg := config.Load()
	log := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	settingsPath := cfg.Settings.Path
	if flag.NArg() > 1 {
		settingsPath = flag.Arg(1)
	}

	deps := InitDependencies(cfg, log)
	defer deps.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := deps.Runner.Run(ctx, app.RunOptions{
		DailyDir:     flag.Arg(0),
		SettingsPath: settingsPath,
		ReportPath:   *report,
		DryRun:       *dryRun,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if *dryRun && result.Message != "" {
		fmt.Println(result.Message)
	}
	if len(result.Delivered) > 0 {
		fmt.Printf("alert sent for %d product(s) via %v\n", len(result.Shortages), result.Delivered)
	}
	return 0
}
