package parser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadSheet materializes the active sheet of a workbook. Cells are read as raw
// values so numeric codes and quantities are not reformatted by number styles.
// When hasHeader is set the first row becomes the trimmed header.
func ReadSheet(path string, hasHeader bool) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file %s: %w", path, err)
	}
	defer f.Close()

	sheetName := activeSheet(f)
	if sheetName == "" {
		return nil, fmt.Errorf("no suitable sheet found in %s", path)
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}

	table := &Table{
		Source: path,
		Kind:   KindSheet,
		Rows:   make([][]string, 0, len(rows)),
	}

	if len(rows) == 0 {
		if hasHeader {
			table.Header = []string{}
		}
		return table, nil
	}

	start := 0
	if hasHeader {
		header := make([]string, len(rows[0]))
		for i, cell := range rows[0] {
			header[i] = strings.TrimSpace(cell)
		}
		table.Header = header
		start = 1
	}

	table.Rows = append(table.Rows, rows[start:]...)
	return table, nil
}

// activeSheet returns the sheet the workbook opens on, falling back to the
// first sheet in the workbook.
func activeSheet(f *excelize.File) string {
	if name := f.GetSheetName(f.GetActiveSheetIndex()); name != "" {
		return name
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}
