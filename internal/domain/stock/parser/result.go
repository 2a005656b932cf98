package parser

import (
	"fmt"

	"github.com/FACorreiaa/stock-alert/internal/domain/stock/normalizer"
)

// Record is one (product code, quantity) pair read from a data row.
type Record struct {
	Code     string
	Quantity int64
	Row      int
}

// ParseError describes why a single row was skipped.
type ParseError struct {
	Row     int
	Column  string
	Message string
	RawData string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
}

// ParseResult collects the records of one table together with the rows that
// could not supply a code and a quantity.
type ParseResult struct {
	Records     []Record
	Errors      []ParseError
	TotalRows   int
	ParsedRows  int
	SkippedRows int
}

// Extract reads every data row of t through the given accessors. Rows without
// a code or a numeric quantity are counted as skipped, never returned as errors.
func Extract(t *Table, code, quantity Accessor) *ParseResult {
	result := &ParseResult{
		Records: make([]Record, 0, len(t.Rows)),
		Errors:  make([]ParseError, 0),
	}

	offset := 1
	if t.HasHeader() {
		offset = 2
	}

	for i, row := range t.Rows {
		rowNum := i + offset
		result.TotalRows++

		rawCode, ok := code(row)
		if !ok {
			result.skip(ParseError{Row: rowNum, Column: "code", Message: "row too short"})
			continue
		}
		c := normalizer.NormalizeCode(rawCode)
		if c == "" {
			result.skip(ParseError{Row: rowNum, Column: "code", Message: "missing product code"})
			continue
		}

		rawQty, ok := quantity(row)
		if !ok {
			result.skip(ParseError{Row: rowNum, Column: "quantity", Message: "row too short"})
			continue
		}
		qty, err := normalizer.NormalizeQuantity(rawQty)
		if err != nil {
			result.skip(ParseError{Row: rowNum, Column: "quantity", Message: err.Error(), RawData: rawQty})
			continue
		}

		result.Records = append(result.Records, Record{Code: c, Quantity: qty, Row: rowNum})
		result.ParsedRows++
	}

	return result
}

func (r *ParseResult) skip(e ParseError) {
	r.Errors = append(r.Errors, e)
	r.SkippedRows++
}
