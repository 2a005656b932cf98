package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected rune
	}{
		{"comma only", "商品コード,在庫数", ','},
		{"tab only", "商品コード\t在庫数", '\t'},
		{"tie prefers tab", "a\tb,c", '\t'},
		{"more commas than tabs", "a\tb,c,d", ','},
		{"no separators", "single", ','},
		{"empty line", "", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectDelimiter(tt.line))
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "a,b", FirstLine("a,b\r\nc,d\r\n"))
	assert.Equal(t, "only", FirstLine("only"))
	assert.Equal(t, "", FirstLine(""))
}

func TestEncodings(t *testing.T) {
	sjis, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte("商品コード,在庫数\n"))
	require.NoError(t, err)

	t.Run("utf-8-sig strips BOM", func(t *testing.T) {
		out, err := UTF8BOM.Decode([]byte("\xef\xbb\xbfcode,qty"))
		require.NoError(t, err)
		assert.Equal(t, "code,qty", out)
	})

	t.Run("utf-8 keeps BOM", func(t *testing.T) {
		out, err := UTF8.Decode([]byte("\xef\xbb\xbfcode,qty"))
		require.NoError(t, err)
		assert.Equal(t, WithBOM("code,qty"), out)
	})

	t.Run("utf-8 rejects Shift_JIS bytes", func(t *testing.T) {
		_, err := UTF8BOM.Decode(sjis)
		assert.ErrorIs(t, err, ErrInvalidUTF8)
		_, err = UTF8.Decode(sjis)
		assert.ErrorIs(t, err, ErrInvalidUTF8)
	})

	t.Run("cp932 decodes Shift_JIS bytes", func(t *testing.T) {
		out, err := ShiftJIS.Decode(sjis)
		require.NoError(t, err)
		assert.Equal(t, "商品コード,在庫数\n", out)
	})

	t.Run("default order", func(t *testing.T) {
		require.Len(t, DefaultEncodings, 3)
		assert.Equal(t, "utf-8-sig", DefaultEncodings[0].Name)
		assert.Equal(t, "utf-8", DefaultEncodings[1].Name)
		assert.Equal(t, "cp932", DefaultEncodings[2].Name)
	})
}

func TestStripBOM(t *testing.T) {
	assert.Equal(t, "商品コード", StripBOM(WithBOM("商品コード")))
	assert.Equal(t, "商品コード", StripBOM("商品コード"))
}
