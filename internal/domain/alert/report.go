package alert

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// WriteReport writes shortages as CSV with a header row.
func WriteReport(w io.Writer, shortages []Shortage) error {
	if shortages == nil {
		shortages = []Shortage{}
	}
	if err := gocsv.Marshal(&shortages, w); err != nil {
		return fmt.Errorf("failed to write shortage report: %w", err)
	}
	return nil
}

// WriteReportFile writes the report to path, replacing any existing file.
func WriteReportFile(path string, shortages []Shortage) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := WriteReport(f, shortages); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
