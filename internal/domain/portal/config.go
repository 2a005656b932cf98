package portal

import (
	"strconv"
	"strings"

	"github.com/FACorreiaa/stock-alert/internal/domain/stock/parser"
)

// Default column positions for join mode. The join key is always column 0.
const (
	DefaultDetailCodeIndex = 1
	DefaultStockDeltaIndex = 1
)

// Config is one sales channel. Join mode, when set, replaces the simple
// column mapping.
type Config struct {
	Mapping   Mapping     `json:"mapping"`
	HasHeader *bool       `json:"has_header,omitempty"`
	JoinMode  bool        `json:"tsv_join_mode"`
	Join      JoinColumns `json:"join"`

	MinStockSource string `json:"min_stock_source"`
	// MinStockBasePath is the older name of MinStockSource.
	MinStockBasePath string `json:"min_stock_base_path,omitempty"`
}

// Mapping locates the product code and quantity columns in stock files.
type Mapping struct {
	ProductCodeColumn      string     `json:"product_code_column"`
	StockColumn            string     `json:"stock_column"`
	ProductCodeColumnIndex FlexString `json:"product_code_column_index"`
	StockColumnIndex       FlexString `json:"stock_column_index"`
	HasHeader              *bool      `json:"has_header,omitempty"`
}

// JoinColumns locates the columns of a details/change-stock file pair.
type JoinColumns struct {
	DetailCodeColumnIndex FlexString `json:"detail_code_column_index"`
	StockDeltaColumnIndex FlexString `json:"stock_delta_column_index"`
}

// HeaderPresent reports whether stock files start with a header row. The
// mapping setting wins over the portal-level one; both default to true.
func (c *Config) HeaderPresent() bool {
	if c.Mapping.HasHeader != nil {
		return *c.Mapping.HasHeader
	}
	if c.HasHeader != nil {
		return *c.HasHeader
	}
	return true
}

// ThresholdSource returns the configured threshold file or directory.
func (c *Config) ThresholdSource() string {
	if s := strings.TrimSpace(c.MinStockSource); s != "" {
		return s
	}
	return strings.TrimSpace(c.MinStockBasePath)
}

// StockMapping converts the settings into a parser mapping.
func (c *Config) StockMapping() parser.Mapping {
	return parser.Mapping{
		HasHeader:     c.HeaderPresent(),
		CodeNames:     []string{c.Mapping.ProductCodeColumn},
		QuantityName:  c.Mapping.StockColumn,
		CodeIndex:     c.Mapping.ProductCodeColumnIndex.String(),
		QuantityIndex: c.Mapping.StockColumnIndex.String(),
	}
}

// JoinIndices returns the details product-code column and the change-stock
// quantity column. Unset, non-numeric, negative or out-of-range values fall
// back to the defaults.
func (c *Config) JoinIndices() (detailCode, stockDelta int) {
	return indexOr(c.Join.DetailCodeColumnIndex, DefaultDetailCodeIndex),
		indexOr(c.Join.StockDeltaColumnIndex, DefaultStockDeltaIndex)
}

func indexOr(raw FlexString, def int) int {
	s := strings.TrimSpace(raw.String())
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// MappingConflict reports a join-mode portal that also carries a simple
// column mapping. Join mode wins; the mapping is ignored.
func (c *Config) MappingConflict() bool {
	if !c.JoinMode {
		return false
	}
	m := c.Mapping
	return m.ProductCodeColumn != "" || m.StockColumn != "" ||
		m.ProductCodeColumnIndex != "" || m.StockColumnIndex != "" || m.HasHeader != nil
}
