// Package parser reads delimited-text and spreadsheet stock files into a
// single tabular shape and extracts (product code, quantity) records from them.
package parser

import (
	"errors"
	"path/filepath"
	"strings"
)

// Kind identifies the source format of a file.
type Kind int

const (
	KindUnknown Kind = iota
	KindDelimited
	KindSheet
)

func (k Kind) String() string {
	switch k {
	case KindDelimited:
		return "delimited"
	case KindSheet:
		return "sheet"
	default:
		return "unknown"
	}
}

// Recognized file extensions, lower-case with the leading dot.
var (
	DelimitedExtensions = []string{".csv", ".tsv", ".txt"}
	SheetExtensions     = []string{".xlsx", ".xlsm"}
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// KindOf classifies a path by its extension.
func KindOf(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range DelimitedExtensions {
		if ext == e {
			return KindDelimited
		}
	}
	for _, e := range SheetExtensions {
		if ext == e {
			return KindSheet
		}
	}
	return KindUnknown
}

// Table is one file materialized as rows of cells. Header is nil when the
// file was read without a header row; Rows never include the header.
type Table struct {
	Source    string
	Kind      Kind
	Encoding  string
	Delimiter rune
	Header    []string
	Rows      [][]string
}

// HasHeader reports whether the table was read with a header row.
func (t *Table) HasHeader() bool {
	return t.Header != nil
}

// ReadFile reads path with the reader matching its extension.
func ReadFile(path string, hasHeader bool) (*Table, error) {
	switch KindOf(path) {
	case KindDelimited:
		return ReadDelimited(path, DelimitedOptions{HasHeader: hasHeader})
	case KindSheet:
		return ReadSheet(path, hasHeader)
	default:
		return nil, ErrUnsupportedFormat
	}
}
