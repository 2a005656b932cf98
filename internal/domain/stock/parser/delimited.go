package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/FACorreiaa/stock-alert/internal/domain/stock/sniffer"
)

// DelimitedOptions configures how a delimited text file is read.
type DelimitedOptions struct {
	HasHeader bool
	// Delimiter overrides detection from the first line when non-zero.
	Delimiter rune
	// Encodings overrides sniffer.DefaultEncodings when non-empty.
	Encodings []sniffer.Encoding
}

// ReadDelimited reads a CSV/TSV file, trying each candidate encoding in order
// until one decodes cleanly and yields at least one row.
func ReadDelimited(path string, opts DelimitedOptions) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	table, err := ParseDelimited(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	table.Source = path
	return table, nil
}

// ParseDelimited is ReadDelimited over in-memory bytes.
func ParseDelimited(data []byte, opts DelimitedOptions) (*Table, error) {
	if len(data) == 0 {
		return nil, sniffer.ErrEmptyFile
	}

	encodings := opts.Encodings
	if len(encodings) == 0 {
		encodings = sniffer.DefaultEncodings
	}

	for _, enc := range encodings {
		text, err := enc.Decode(data)
		if err != nil {
			continue
		}

		delimiter := opts.Delimiter
		if delimiter == 0 {
			delimiter = sniffer.DetectDelimiter(sniffer.FirstLine(text))
		}

		table := readRecords(text, delimiter, opts.HasHeader)
		if len(table.Rows) == 0 {
			continue
		}

		table.Encoding = enc.Name
		return table, nil
	}

	return nil, sniffer.ErrNoEncodingFit
}

func readRecords(text string, delimiter rune, hasHeader bool) *Table {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	table := &Table{
		Kind:      KindDelimited,
		Delimiter: delimiter,
		Rows:      make([][]string, 0, 256),
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line: drop it and keep reading.
			continue
		}

		if hasHeader && table.Header == nil {
			table.Header = record
			continue
		}
		table.Rows = append(table.Rows, record)
	}

	return table
}
