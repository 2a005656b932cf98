// Package threshold loads the per-portal minimum stock definitions.
package threshold

import (
	"context"
	"errors"
	"log/slog"
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

// MinimumColumn is the header of the minimum stock column. It is not
// configurable.
const MinimumColumn = "最低在庫数"

// WorkbookName is the threshold file looked up when the source is a directory.
const WorkbookName = "stock_manage.xlsx"

// CodeColumnCandidates are the product code headers used by past versions of
// the threshold files, in priority order. The portal's configured product
// code column is tried before all of them.
var CodeColumnCandidates = []string{"商品コード", "返礼品コード", "管理番号", "product_code"}

// Thresholds maps a product code to its minimum stock.
type Thresholds map[string]int64

// Loader reads threshold files.
type Loader struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{
		logger: logger,
		tracer: otel.Tracer("stockalert/threshold"),
	}
}

func (l *Loader) WithMetrics(m *metrics.Metrics) *Loader {
	l.metrics = m
	return l
}

// Load reads the thresholds for one portal. source may be a file or a
// directory; see Resolve. A missing source, an unrecognized extension or a
// file without a usable header yields an empty map.
func (l *Loader) Load(ctx context.Context, source, portalName string, cfg *portal.Config) Thresholds {
	_, span := l.tracer.Start(ctx, "threshold.Load", trace.WithAttributes(
		attribute.String("portal", portalName),
		attribute.String("source", source),
	))
	defer span.End()

	out := make(Thresholds)

	path, ok := Resolve(source, portalName)
	if !ok {
		l.logger.Warn("threshold source not found",
			slog.String("portal", portalName),
			slog.String("source", source),
		)
		return out
	}

	kind := parser.KindOf(path)
	if kind == parser.KindUnknown {
		l.logger.Warn("unsupported threshold file", slog.String("file", path))
		l.metrics.FileProcessed("threshold", "unsupported")
		return out
	}

	table, err := parser.ReadFile(path, true)
	if err != nil {
		l.logger.Warn("cannot read threshold file", slog.String("file", path), slog.Any("error", err))
		l.metrics.FileProcessed("threshold", "unreadable")
		return out
	}

	mapping := parser.Mapping{
		HasHeader:    true,
		CodeNames:    codeCandidates(cfg),
		QuantityName: MinimumColumn,
	}
	code, minimum, err := mapping.Columns(table)
	if err != nil {
		attrs := []any{slog.String("file", path), slog.Any("error", err)}
		var notFound *parser.ColumnNotFoundError
		if errors.As(err, &notFound) && len(notFound.Suggestions) > 0 {
			attrs = append(attrs, slog.Any("suggestions", notFound.Suggestions))
		}
		l.logger.Warn("threshold columns not found", attrs...)
		l.metrics.FileProcessed("threshold", "unmapped")
		return out
	}

	result := parser.Extract(table, code, minimum)
	for _, rec := range result.Records {
		out[rec.Code] = rec.Quantity
	}
	for _, e := range result.Errors {
		l.logger.Debug("threshold row skipped",
			slog.String("file", path),
			slog.Int("row", e.Row),
			slog.String("reason", e.Message),
		)
	}
	l.metrics.FileProcessed("threshold", "parsed")

	span.SetAttributes(attribute.Int("products", len(out)))
	l.logger.Info("thresholds loaded",
		slog.String("portal", portalName),
		slog.String("file", path),
		slog.Int("products", len(out)),
		slog.Int("skipped_rows", result.SkippedRows),
	)
	return out
}

// Resolve turns a configured source into a threshold file. A directory
// resolves to its stock_manage.xlsx, then to <portal>/stock_manage.xlsx
// inside it (as written, then lower-cased), then to its first recognized file
// in lexical order.
func Resolve(source, portalName string) (string, bool) {
	if source == "" {
		return "", false
	}
	info, err := os.Stat(source)
	if err != nil {
		return "", false
	}
	if !info.IsDir() {
		return source, true
	}

	for _, p := range []string{
		filepath.Join(source, WorkbookName),
		filepath.Join(source, portalName, WorkbookName),
		filepath.Join(source, strings.ToLower(portalName), WorkbookName),
	} {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, true
		}
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return "", false
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && !strings.HasPrefix(e.Name(), "~$") && parser.KindOf(e.Name()) != parser.KindUnknown {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(source, names[0]), true
}

func codeCandidates(cfg *portal.Config) []string {
	names := make([]string, 0, len(CodeColumnCandidates)+1)
	if cfg != nil && cfg.Mapping.ProductCodeColumn != "" {
		names = append(names, cfg.Mapping.ProductCodeColumn)
	}
	return append(names, CodeColumnCandidates...)
}
