// Package service aggregates the stock files of one portal directory into
// per-product totals.
package service

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/stock-alert/internal/domain/portal"
	"github.com/FACorreiaa/stock-alert/internal/domain/stock/parser"
	"github.com/FACorreiaa/stock-alert/pkg/metrics"
)

// lockFilePrefix marks the owner files office suites leave next to open
// workbooks.
const lockFilePrefix = "~$"

// Totals maps a product code to its summed quantity.
type Totals map[string]int64

// Add accumulates qty into code. A sum that would leave the int64 range is
// clamped to the nearest bound and Add reports false.
func (t Totals) Add(code string, qty int64) bool {
	cur := t[code]
	sum := cur + qty
	switch {
	case qty > 0 && sum < cur:
		t[code] = math.MaxInt64
		return false
	case qty < 0 && sum > cur:
		t[code] = math.MinInt64
		return false
	}
	t[code] = sum
	return true
}

// Merge adds every entry of other into t.
func (t Totals) Merge(other Totals) {
	for code, qty := range other {
		t.Add(code, qty)
	}
}

// Summary counts what one aggregation call looked at.
type Summary struct {
	FilesSeen    int
	FilesParsed  int
	FilesSkipped int
	RowsParsed   int
	RowsSkipped  int
}

// StockService walks portal directories and sums stock per product code.
type StockService struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	portal  string
}

// NewStockService creates a new stock service
func NewStockService(logger *slog.Logger) *StockService {
	return &StockService{
		logger: logger,
		tracer: otel.Tracer("stockalert/stock"),
	}
}

// WithMetrics records file and row counters on m.
func (s *StockService) WithMetrics(m *metrics.Metrics) *StockService {
	s.metrics = m
	return s
}

// WithPortal labels logs and metrics with the portal name.
func (s *StockService) WithPortal(name string) *StockService {
	s.portal = name
	return s
}

// Aggregate sums the stock of every recognized file under dir. Join-mode
// portals are handed to AggregateJoined. A missing directory yields an empty
// result; unreadable files and bad rows are logged and skipped.
func (s *StockService) Aggregate(ctx context.Context, dir string, cfg *portal.Config) (Totals, Summary) {
	if cfg.JoinMode {
		return s.AggregateJoined(ctx, dir, cfg)
	}

	ctx, span := s.tracer.Start(ctx, "stock.Aggregate", trace.WithAttributes(
		attribute.String("portal", s.portal),
		attribute.String("dir", dir),
	))
	defer span.End()

	totals := make(Totals)
	var summary Summary

	files := s.discover(dir, func(path string) bool {
		return parser.KindOf(path) != parser.KindUnknown
	})
	mapping := cfg.StockMapping()

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		summary.FilesSeen++
		result, ok := s.readFile(path, mapping)
		if !ok {
			summary.FilesSkipped++
			continue
		}
		summary.FilesParsed++
		summary.RowsParsed += result.ParsedRows
		summary.RowsSkipped += result.SkippedRows

		for _, rec := range result.Records {
			if !totals.Add(rec.Code, rec.Quantity) {
				s.logSaturated(path, rec.Row, rec.Code)
			}
		}
	}

	span.SetAttributes(
		attribute.Int("files", summary.FilesParsed),
		attribute.Int("products", len(totals)),
	)
	s.logger.Info("stock aggregated",
		slog.String("portal", s.portal),
		slog.String("dir", dir),
		slog.Int("files_parsed", summary.FilesParsed),
		slog.Int("files_skipped", summary.FilesSkipped),
		slog.Int("rows_parsed", summary.RowsParsed),
		slog.Int("rows_skipped", summary.RowsSkipped),
		slog.Int("products", len(totals)),
	)

	return totals, summary
}

// readFile reads one stock file and extracts its records. The second return
// is false when the file contributes nothing.
func (s *StockService) readFile(path string, mapping parser.Mapping) (*parser.ParseResult, bool) {
	kind := parser.KindOf(path).String()

	table, err := parser.ReadFile(path, mapping.HasHeader)
	if err != nil {
		s.logger.Warn("skipping unreadable stock file",
			slog.String("file", path),
			slog.Any("error", err),
		)
		s.metrics.FileProcessed(kind, "unreadable")
		return nil, false
	}

	code, qty, err := mapping.Columns(table)
	if err != nil {
		attrs := []any{slog.String("file", path), slog.Any("error", err)}
		var notFound *parser.ColumnNotFoundError
		if errors.As(err, &notFound) && len(notFound.Suggestions) > 0 {
			attrs = append(attrs, slog.Any("suggestions", notFound.Suggestions))
		}
		s.logger.Warn("skipping stock file with unresolved columns", attrs...)
		s.metrics.FileProcessed(kind, "unmapped")
		return nil, false
	}

	result := parser.Extract(table, code, qty)
	s.logSkips(path, result)
	s.metrics.FileProcessed(kind, "parsed")
	s.metrics.RowsParsed(s.portal, result.ParsedRows)

	s.logger.Debug("stock file parsed",
		slog.String("file", path),
		slog.String("encoding", table.Encoding),
		slog.Int("total_rows", result.TotalRows),
		slog.Int("parsed_rows", result.ParsedRows),
		slog.Int("skipped_rows", result.SkippedRows),
	)
	return result, true
}

func (s *StockService) logSkips(path string, result *parser.ParseResult) {
	for _, e := range result.Errors {
		s.metrics.RowSkipped(s.portal, e.Column)
		s.logger.Debug("row skipped",
			slog.String("file", path),
			slog.Int("row", e.Row),
			slog.String("column", e.Column),
			slog.String("reason", e.Message),
		)
	}
}

func (s *StockService) logSaturated(path string, row int, code string) {
	s.logger.Warn("stock total out of range, clamped",
		slog.String("portal", s.portal),
		slog.String("file", path),
		slog.Int("row", row),
		slog.String("product_code", code),
	)
}

// discover returns the files under dir accepted by keep, in lexical order.
// Lock files and unreadable entries are ignored; a missing dir yields nil.
func (s *StockService) discover(dir string, keep func(string) bool) []string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("stock directory not found",
			slog.String("portal", s.portal),
			slog.String("dir", dir),
		)
		return nil
	}

	var files []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("cannot read directory entry", slog.String("path", path), slog.Any("error", err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), lockFilePrefix) {
			return nil
		}
		if keep(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files
}
