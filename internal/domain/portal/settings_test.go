package portal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSettings = `{
	"chatwork": {
		"api_base_url": "https://api.chatwork.com",
		"room_id": 12345,
		"mention_members": [{"account_id": "67", "name": "担当"}]
	},
	"alert": {"comparator": "lt"},
	"portals": {
		"Amazon": {
			"mapping": {
				"product_code_column": "商品コード",
				"stock_column": "在庫数",
				"product_code_column_index": 2,
				"stock_column_index": "3"
			},
			"min_stock_source": "/data/amazon/stock_manage.xlsx"
		},
		"Rakuten": {
			"tsv_join_mode": true,
			"has_header": false,
			"join": {"detail_code_column_index": 4},
			"min_stock_base_path": "/data"
		},
		"Yahoo": {"mapping": {"has_header": false}}
	}
}`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sampleSettings))
	require.NoError(t, err)

	assert.Equal(t, "12345", s.Chatwork.RoomID.String())
	assert.Equal(t, FlexString("67"), s.Chatwork.MentionMembers[0].AccountID)
	assert.Equal(t, "lt", s.Alert.Comparator)
	assert.Equal(t, []string{"Amazon", "Rakuten", "Yahoo"}, s.Names())

	amazon := s.Portals["Amazon"]
	m := amazon.StockMapping()
	assert.True(t, m.HasHeader)
	assert.Equal(t, []string{"商品コード"}, m.CodeNames)
	assert.Equal(t, "2", m.CodeIndex)
	assert.Equal(t, "3", m.QuantityIndex)

	rakuten := s.Portals["Rakuten"]
	assert.True(t, rakuten.JoinMode)
	assert.False(t, rakuten.HeaderPresent())
	assert.Equal(t, "/data", rakuten.ThresholdSource())
	detail, delta := rakuten.JoinIndices()
	assert.Equal(t, 4, detail)
	assert.Equal(t, DefaultStockDeltaIndex, delta)

	assert.False(t, s.Portals["Yahoo"].HeaderPresent())
	assert.Equal(t, map[string]string{"amazon": "Amazon", "rakuten": "Rakuten"}, s.Targets())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{"portals": []}`))
	assert.ErrorIs(t, err, ErrInvalidSettings)

	_, err = Parse([]byte(`{"chatwork": {"room_id": true}}`))
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestLookup(t *testing.T) {
	s, err := Parse([]byte(sampleSettings))
	require.NoError(t, err)

	key, cfg, err := s.Lookup("amazon")
	require.NoError(t, err)
	assert.Equal(t, "Amazon", key)
	assert.Equal(t, "/data/amazon/stock_manage.xlsx", cfg.ThresholdSource())

	key, _, err = s.Lookup("RAKUTEN")
	require.NoError(t, err)
	assert.Equal(t, "Rakuten", key)

	_, _, err = s.Lookup("mercari")
	assert.ErrorIs(t, err, ErrPortalNotFound)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setting.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleSettings), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Portals, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestJoinIndices_Defaults(t *testing.T) {
	cfg := &Config{Join: JoinColumns{DetailCodeColumnIndex: "x"}}
	detail, delta := cfg.JoinIndices()
	assert.Equal(t, DefaultDetailCodeIndex, detail)
	assert.Equal(t, DefaultStockDeltaIndex, delta)
}

func TestJoinIndices_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		value FlexString
	}{
		{"beyond uint64", "18446744073709551615"},
		{"beyond int64", "9223372036854775808"},
		{"negative", "-1"},
		{"spaces inside", "1 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Join: JoinColumns{DetailCodeColumnIndex: tt.value, StockDeltaColumnIndex: tt.value}}
			detail, delta := cfg.JoinIndices()
			assert.Equal(t, DefaultDetailCodeIndex, detail)
			assert.Equal(t, DefaultStockDeltaIndex, delta)
		})
	}
}

func TestConfig_MappingConflict(t *testing.T) {
	s, err := Parse([]byte(`{"portals": {
		"Rakuten": {"tsv_join_mode": true, "mapping": {"product_code_column": "商品コード"}},
		"Yahoo": {"tsv_join_mode": true},
		"Amazon": {"mapping": {"stock_column": "在庫数"}}
	}}`))
	require.NoError(t, err)

	assert.True(t, s.Portals["Rakuten"].MappingConflict())
	assert.False(t, s.Portals["Yahoo"].MappingConflict())
	assert.False(t, s.Portals["Amazon"].MappingConflict())
}
