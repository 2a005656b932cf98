package parser

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/stock-alert/internal/domain/stock/sniffer"
)

// Default header names used when a portal mapping leaves them unset.
const (
	DefaultCodeColumn     = "商品コード"
	DefaultQuantityColumn = "在庫数"
)

var (
	ErrInvalidIndex = errors.New("invalid column index")
	ErrNoHeader     = errors.New("table has no header row")
)

// ColumnRef addresses a column either by header name or by zero-based position.
type ColumnRef struct {
	name   string
	index  int
	byName bool
}

// ByName references a column by its header text.
func ByName(name string) ColumnRef {
	return ColumnRef{name: name, byName: true}
}

// ByIndex references a column by position.
func ByIndex(index int) ColumnRef {
	return ColumnRef{index: index}
}

func (c ColumnRef) String() string {
	if c.byName {
		return c.name
	}
	return strconv.Itoa(c.index)
}

// Accessor returns the cell a resolved column holds in a row, and false when
// the row is too short to have it.
type Accessor func(row []string) (string, bool)

// ColumnNotFoundError reports a header name missing from a table.
type ColumnNotFoundError struct {
	Column      string
	Suggestions []string
}

func (e *ColumnNotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("column %q not found in header", e.Column)
	}
	return fmt.Sprintf("column %q not found in header (did you mean %s?)", e.Column, strings.Join(e.Suggestions, ", "))
}

// Resolve binds ref to t once, so row processing does not care whether the
// column was named or positional. Named lookups tolerate a byte order mark
// leaked into the header cell.
func (t *Table) Resolve(ref ColumnRef) (Accessor, error) {
	if !ref.byName {
		if ref.index < 0 {
			return nil, ErrInvalidIndex
		}
		return indexAccessor(ref.index), nil
	}

	if t.Header == nil {
		return nil, ErrNoHeader
	}
	idx, ok := t.lookup(ref.name)
	if !ok {
		return nil, &ColumnNotFoundError{Column: ref.name, Suggestions: suggest(ref.name, t.Header)}
	}
	return indexAccessor(idx), nil
}

// lookup finds a header name. Duplicate names resolve to the last occurrence.
func (t *Table) lookup(name string) (int, bool) {
	found := -1
	for i, h := range t.Header {
		if h == name || h == sniffer.WithBOM(name) {
			found = i
		}
	}
	return found, found >= 0
}

func indexAccessor(idx int) Accessor {
	return func(row []string) (string, bool) {
		if idx >= len(row) {
			return "", false
		}
		return row[idx], true
	}
}

func suggest(name string, header []string) []string {
	targets := make([]string, 0, len(header))
	for _, h := range header {
		if h = strings.TrimSpace(sniffer.StripBOM(h)); h != "" {
			targets = append(targets, h)
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(name, targets)
	sort.Sort(ranks)

	var out []string
	for _, r := range ranks {
		out = append(out, r.Target)
		if len(out) == 3 {
			break
		}
	}
	return out
}

// Mapping is the configured location of a (product code, quantity) column
// pair. CodeNames are tried in order; indices are kept in their raw
// configured form and are empty when unset.
type Mapping struct {
	HasHeader     bool
	CodeNames     []string
	QuantityName  string
	CodeIndex     string
	QuantityIndex string
}

// Columns resolves the mapping against a table.
//
//   - headered text: the first configured code name present, the quantity name exactly
//   - plain text: configured indices, defaulting to 0 and 1
//   - headered sheet: names from the header row, else position 0 for the code and
//     1 for the quantity (0 when the code already sits at 1)
//   - plain sheet: configured indices when they are digit strings, else 0 and 1
func (m Mapping) Columns(t *Table) (code, quantity Accessor, err error) {
	switch {
	case t.Kind == KindSheet && t.HasHeader():
		codeIdx, ok := m.firstName(t)
		if !ok {
			codeIdx = 0
		}
		qtyIdx, ok := t.lookup(m.quantityName())
		if !ok {
			qtyIdx = 1
			if codeIdx == 1 {
				qtyIdx = 0
			}
		}
		return indexAccessor(codeIdx), indexAccessor(qtyIdx), nil

	case t.Kind == KindSheet:
		return indexAccessor(lenientIndex(m.CodeIndex, 0)), indexAccessor(lenientIndex(m.QuantityIndex, 1)), nil

	case t.HasHeader():
		names := m.codeNames()
		codeIdx, ok := m.firstName(t)
		if !ok {
			return nil, nil, &ColumnNotFoundError{Column: names[0], Suggestions: suggest(names[0], t.Header)}
		}
		quantity, err = t.Resolve(ByName(m.quantityName()))
		if err != nil {
			return nil, nil, err
		}
		return indexAccessor(codeIdx), quantity, nil

	default:
		codeIdx, err := strictIndex(m.CodeIndex, 0)
		if err != nil {
			return nil, nil, err
		}
		qtyIdx, err := strictIndex(m.QuantityIndex, 1)
		if err != nil {
			return nil, nil, err
		}
		return indexAccessor(codeIdx), indexAccessor(qtyIdx), nil
	}
}

func (m Mapping) codeNames() []string {
	var names []string
	for _, n := range m.CodeNames {
		if n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		names = []string{DefaultCodeColumn}
	}
	return names
}

func (m Mapping) quantityName() string {
	if m.QuantityName == "" {
		return DefaultQuantityColumn
	}
	return m.QuantityName
}

func (m Mapping) firstName(t *Table) (int, bool) {
	for _, name := range m.codeNames() {
		if idx, ok := t.lookup(name); ok {
			return idx, true
		}
	}
	return 0, false
}

func strictIndex(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	if !isDigits(raw) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIndex, raw)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIndex, raw)
	}
	return n, nil
}

func lenientIndex(raw string, def int) int {
	n, err := strictIndex(raw, def)
	if err != nil {
		return def
	}
	return n
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
