// Package normalizer coerces raw cell text from stock and threshold files into
// product codes and integer quantities.
package normalizer

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyQuantity   = errors.New("empty quantity")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrQuantityRange   = errors.New("quantity out of range")
)

var (
	maxQuantity = decimal.NewFromInt(1<<63 - 1)
	minQuantity = decimal.NewFromInt(-1 << 63)
)

// maxIntegerDigits is the number of decimal digits of the largest int64.
const maxIntegerDigits = 19

// NormalizeQuantity parses cell text such as "12", "1,234" or "3.0" into an
// integer quantity. Thousands separators are removed and any fractional part
// is truncated toward zero.
func NormalizeQuantity(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmptyQuantity
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidQuantity
	}

	// Exponent notation is accepted by the decimal parser, so the magnitude
	// is bounded from coefficient length and exponent before any rescaling.
	if d.IsZero() {
		return 0, nil
	}
	magnitude := d.NumDigits() + int(d.Exponent())
	if magnitude > maxIntegerDigits {
		return 0, ErrQuantityRange
	}
	if magnitude <= 0 {
		return 0, nil
	}

	d = d.Truncate(0)
	if d.GreaterThan(maxQuantity) || d.LessThan(minQuantity) {
		return 0, ErrQuantityRange
	}

	return d.IntPart(), nil
}

// NormalizeCode trims surrounding whitespace from a product code. An empty
// result means the row carries no code.
func NormalizeCode(raw string) string {
	return strings.TrimSpace(raw)
}
