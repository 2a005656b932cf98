package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/stock-alert/internal/domain/portal"
	"github.com/FACorreiaa/stock-alert/internal/domain/stock/normalizer"
	"github.com/FACorreiaa/stock-alert/internal/domain/stock/parser"
)

const (
	joinExtension     = ".tsv"
	changeStockSuffix = "_change_stock"
	joinKeyColumn     = 0
)

// joinPair is a change-stock file and the details file sharing its stem.
type joinPair struct {
	details string
	change  string
}

// AggregateJoined handles portals that export each day as two tab-separated
// files: X.tsv maps a join key to a product code and X_change_stock.tsv maps
// the same key to a quantity. Neither file has a header. A change-stock file
// without a details counterpart, or a pair where either side has no rows,
// contributes nothing.
func (s *StockService) AggregateJoined(ctx context.Context, dir string, cfg *portal.Config) (Totals, Summary) {
	ctx, span := s.tracer.Start(ctx, "stock.AggregateJoined", trace.WithAttributes(
		attribute.String("portal", s.portal),
		attribute.String("dir", dir),
	))
	defer span.End()

	totals := make(Totals)
	var summary Summary

	files := s.discover(dir, func(path string) bool {
		return strings.EqualFold(filepath.Ext(path), joinExtension)
	})
	pairs := s.pairFiles(files)
	detailCol, deltaCol := cfg.JoinIndices()

	for _, p := range pairs {
		if ctx.Err() != nil {
			break
		}
		summary.FilesSeen += 2

		codes, ok := s.readDetails(p.details, detailCol)
		if !ok {
			summary.FilesSkipped += 2
			continue
		}
		deltas, ok := s.readChanges(p.change, deltaCol)
		if !ok {
			summary.FilesSkipped += 2
			continue
		}
		summary.FilesParsed += 2
		summary.RowsSkipped += deltas.SkippedRows

		matched := 0
		for _, rec := range deltas.Records {
			code, found := codes[rec.Code]
			if !found {
				summary.RowsSkipped++
				s.logger.Debug("change-stock key has no details row",
					slog.String("file", p.change),
					slog.Int("row", rec.Row),
					slog.String("key", rec.Code),
				)
				continue
			}
			if !totals.Add(code, rec.Quantity) {
				s.logSaturated(p.change, rec.Row, code)
			}
			matched++
		}
		summary.RowsParsed += matched
		s.metrics.RowsParsed(s.portal, matched)
	}

	span.SetAttributes(
		attribute.Int("pairs", len(pairs)),
		attribute.Int("products", len(totals)),
	)
	s.logger.Info("joined stock aggregated",
		slog.String("portal", s.portal),
		slog.String("dir", dir),
		slog.Int("pairs", len(pairs)),
		slog.Int("files_skipped", summary.FilesSkipped),
		slog.Int("rows_parsed", summary.RowsParsed),
		slog.Int("rows_skipped", summary.RowsSkipped),
		slog.Int("products", len(totals)),
	)

	return totals, summary
}

// pairFiles matches every change-stock file with the details file of the
// same stem, preferring one in the same directory.
func (s *StockService) pairFiles(files []string) []joinPair {
	details := make(map[string][]string)
	var changes []string

	for _, path := range files {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if strings.HasSuffix(stem, changeStockSuffix) {
			changes = append(changes, path)
			continue
		}
		details[stem] = append(details[stem], path)
	}

	pairs := make([]joinPair, 0, len(changes))
	for _, change := range changes {
		stem := strings.TrimSuffix(filepath.Base(change), filepath.Ext(change))
		stem = strings.TrimSuffix(stem, changeStockSuffix)

		candidates := details[stem]
		if len(candidates) == 0 {
			s.logger.Info("change-stock file has no details file",
				slog.String("file", change),
				slog.String("expected", stem+joinExtension),
			)
			s.metrics.FileProcessed("join", "unmatched")
			continue
		}

		match := candidates[0]
		for _, c := range candidates {
			if filepath.Dir(c) == filepath.Dir(change) {
				match = c
				break
			}
		}
		pairs = append(pairs, joinPair{details: match, change: change})
	}
	return pairs
}

// readDetails maps join keys to product codes. Later rows win on duplicate keys.
func (s *StockService) readDetails(path string, codeCol int) (map[string]string, bool) {
	table, ok := s.readJoinFile(path)
	if !ok {
		return nil, false
	}

	keyAt, err := table.Resolve(parser.ByIndex(joinKeyColumn))
	if err != nil {
		s.logger.Warn("invalid join key column", slog.String("file", path), slog.Any("error", err))
		return nil, false
	}
	codeAt, err := table.Resolve(parser.ByIndex(codeCol))
	if err != nil {
		s.logger.Warn("invalid detail code column", slog.String("file", path), slog.Any("error", err))
		return nil, false
	}

	codes := make(map[string]string, len(table.Rows))
	for i, row := range table.Rows {
		rawKey, okKey := keyAt(row)
		rawCode, okCode := codeAt(row)
		if !okKey || !okCode {
			s.logger.Debug("row skipped", slog.String("file", path), slog.Int("row", i+1), slog.String("reason", "row too short"))
			continue
		}
		key := normalizer.NormalizeCode(rawKey)
		code := normalizer.NormalizeCode(rawCode)
		if key == "" || code == "" {
			continue
		}
		codes[key] = code
	}

	if len(codes) == 0 {
		s.logger.Warn("details file has no usable rows", slog.String("file", path))
		s.metrics.FileProcessed("join", "empty")
		return nil, false
	}
	s.metrics.FileProcessed("join", "parsed")
	return codes, true
}

// readChanges extracts (join key, quantity) records. Record.Code holds the key.
func (s *StockService) readChanges(path string, deltaCol int) (*parser.ParseResult, bool) {
	table, ok := s.readJoinFile(path)
	if !ok {
		return nil, false
	}

	key, err := table.Resolve(parser.ByIndex(joinKeyColumn))
	if err != nil {
		s.logger.Warn("invalid join key column", slog.String("file", path), slog.Any("error", err))
		return nil, false
	}
	delta, err := table.Resolve(parser.ByIndex(deltaCol))
	if err != nil {
		s.logger.Warn("invalid stock delta column", slog.String("file", path), slog.Any("error", err))
		return nil, false
	}

	result := parser.Extract(table, key, delta)
	s.logSkips(path, result)
	if len(result.Records) == 0 {
		s.logger.Warn("change-stock file has no usable rows", slog.String("file", path))
		s.metrics.FileProcessed("join", "empty")
		return nil, false
	}
	s.metrics.FileProcessed("join", "parsed")
	return result, true
}

func (s *StockService) readJoinFile(path string) (*parser.Table, bool) {
	table, err := parser.ReadDelimited(path, parser.DelimitedOptions{Delimiter: '\t'})
	if err != nil {
		s.logger.Warn("skipping unreadable join file", slog.String("file", path), slog.Any("error", err))
		s.metrics.FileProcessed("join", "unreadable")
		return nil, false
	}
	return table, true
}
