package threshold

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/stock-alert/internal/domain/portal"
)

func newTestLoader() *Loader {
	return NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeWorkbook(t *testing.T, path string, rows [][]interface{}) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoad_Delimited(t *testing.T) {
	ctx := context.Background()
	cfg := &portal.Config{}

	tests := []struct {
		name    string
		content string
		want    Thresholds
	}{
		{
			name:    "default code header",
			content: "商品コード,最低在庫数\nP100,10\nP200,\"1,500\"\n",
			want:    Thresholds{"P100": 10, "P200": 1500},
		},
		{
			name:    "historical code header",
			content: "返礼品コード,最低在庫数\nR1,3\n",
			want:    Thresholds{"R1": 3},
		},
		{
			name:    "first candidate wins",
			content: "管理番号,商品コード,最低在庫数\nM1,P1,4\n",
			want:    Thresholds{"P1": 4},
		},
		{
			name:    "no candidate header",
			content: "code,最低在庫数\nP1,4\n",
			want:    Thresholds{},
		},
		{
			name:    "bad rows skipped",
			content: "product_code\t最低在庫数\nP1\tx\n\t5\nP2\t2.7\n",
			want:    Thresholds{"P2": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, filepath.Join(t.TempDir(), "min.csv"), tt.content)
			got := newTestLoader().Load(ctx, path, "amazon", cfg)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_ConfiguredCodeColumnFirst(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "min.csv"), "SKU,商品コード,最低在庫数\nS1,P1,4\n")
	cfg := &portal.Config{Mapping: portal.Mapping{ProductCodeColumn: "SKU"}}

	got := newTestLoader().Load(context.Background(), path, "amazon", cfg)
	assert.Equal(t, Thresholds{"S1": 4}, got)
}

func TestLoad_Spreadsheet(t *testing.T) {
	ctx := context.Background()

	t.Run("header names", func(t *testing.T) {
		path := writeWorkbook(t, filepath.Join(t.TempDir(), "stock_manage.xlsx"), [][]interface{}{
			{"メモ", "最低在庫数", "商品コード"},
			{"x", 10, "P100"},
		})
		got := newTestLoader().Load(ctx, path, "amazon", &portal.Config{})
		assert.Equal(t, Thresholds{"P100": 10}, got)
	})

	t.Run("positional fallback", func(t *testing.T) {
		path := writeWorkbook(t, filepath.Join(t.TempDir(), "stock_manage.xlsx"), [][]interface{}{
			{"code", "min"},
			{"P1", 5},
			{"P2", 6},
		})
		got := newTestLoader().Load(ctx, path, "amazon", &portal.Config{})
		assert.Equal(t, Thresholds{"P1": 5, "P2": 6}, got)
	})
}

func TestLoad_Missing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		got := newTestLoader().Load(ctx, filepath.Join(dir, "none.csv"), "amazon", &portal.Config{})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("unknown extension", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "min.json"), "{}")
		assert.Empty(t, newTestLoader().Load(ctx, path, "amazon", &portal.Config{}))
	})

	t.Run("empty source", func(t *testing.T) {
		assert.Empty(t, newTestLoader().Load(ctx, "", "amazon", &portal.Config{}))
	})
}

func TestResolve(t *testing.T) {
	t.Run("workbook in directory", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.csv"), "x")
		want := writeFile(t, filepath.Join(dir, WorkbookName), "x")

		got, ok := Resolve(dir, "amazon")
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("portal sub-directory", func(t *testing.T) {
		dir := t.TempDir()
		want := writeFile(t, filepath.Join(dir, "amazon", WorkbookName), "x")

		got, ok := Resolve(dir, "amazon")
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("first recognized file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "~$b.xlsx"), "x")
		writeFile(t, filepath.Join(dir, "readme.md"), "x")
		want := writeFile(t, filepath.Join(dir, "b.csv"), "x")
		writeFile(t, filepath.Join(dir, "c.tsv"), "x")

		got, ok := Resolve(dir, "amazon")
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("empty directory", func(t *testing.T) {
		_, ok := Resolve(t.TempDir(), "amazon")
		assert.False(t, ok)
	})
}
