package parser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestReadSheet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stock.xlsx")
	writeWorkbook(t, path, [][]interface{}{
		{" 商品コード ", "在庫数"},
		{"P001", 3},
		{12345, 7.5},
	})

	t.Run("with header", func(t *testing.T) {
		table, err := ReadSheet(path, true)
		require.NoError(t, err)

		assert.Equal(t, KindSheet, table.Kind)
		assert.Equal(t, []string{"商品コード", "在庫数"}, table.Header)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, []string{"P001", "3"}, table.Rows[0])
		assert.Equal(t, []string{"12345", "7.5"}, table.Rows[1])
	})

	t.Run("without header", func(t *testing.T) {
		table, err := ReadSheet(path, false)
		require.NoError(t, err)

		assert.False(t, table.HasHeader())
		assert.Len(t, table.Rows, 3)
	})

	t.Run("extract through mapping", func(t *testing.T) {
		table, err := ReadSheet(path, true)
		require.NoError(t, err)

		code, qty, err := Mapping{HasHeader: true}.Columns(table)
		require.NoError(t, err)
		result := Extract(table, code, qty)

		assert.Equal(t, []Record{
			{Code: "P001", Quantity: 3, Row: 2},
			{Code: "12345", Quantity: 7, Row: 3},
		}, result.Records)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadSheet(filepath.Join(dir, "missing.xlsx"), true)
		assert.Error(t, err)
	})
}
