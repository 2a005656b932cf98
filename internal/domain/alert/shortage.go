// Package alert compares aggregated stock with minimum stock thresholds.
package alert

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownComparator    = errors.New("unknown comparator")
	ErrUnknownMissingPolicy = errors.New("unknown missing threshold policy")
)

// Comparator decides whether a current stock level is short of its minimum.
type Comparator string

const (
	// AtOrBelow flags current <= min. It is the default.
	AtOrBelow Comparator = "lte"
	// Below flags current < min.
	Below Comparator = "lt"
)

// ParseComparator reads the alert.comparator setting. Empty means AtOrBelow.
func ParseComparator(s string) (Comparator, error) {
	switch Comparator(strings.ToLower(strings.TrimSpace(s))) {
	case "", AtOrBelow, "<=":
		return AtOrBelow, nil
	case Below, "<":
		return Below, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownComparator, s)
	}
}

// Short reports whether current triggers an alert against min.
func (c Comparator) Short(current, min int64) bool {
	if c == Below {
		return current < min
	}
	return current <= min
}

// Expression renders the comparison for logs.
func (c Comparator) Expression() string {
	if c == Below {
		return "current < min"
	}
	return "current <= min"
}

// MissingPolicy says what to do with a stocked product that has no threshold.
type MissingPolicy string

const (
	// SkipMissing ignores products without a threshold. It is the default.
	SkipMissing MissingPolicy = "skip"
	// ZeroMissing treats a missing threshold as a minimum of zero.
	ZeroMissing MissingPolicy = "zero"
)

// ParseMissingPolicy reads the alert.missing_threshold setting.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SkipMissing:
		return SkipMissing, nil
	case ZeroMissing:
		return ZeroMissing, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMissingPolicy, s)
	}
}

// Policy combines the comparison settings of a run.
type Policy struct {
	Comparator Comparator
	Missing    MissingPolicy
}

// ParsePolicy reads both settings at once.
func ParsePolicy(comparator, missing string) (Policy, error) {
	c, err := ParseComparator(comparator)
	if err != nil {
		return Policy{}, err
	}
	m, err := ParseMissingPolicy(missing)
	if err != nil {
		return Policy{}, err
	}
	return Policy{Comparator: c, Missing: m}, nil
}

// Shortage is a product whose stock triggered an alert.
type Shortage struct {
	Portal  string `csv:"portal"`
	Code    string `csv:"product_code"`
	Current int64  `csv:"current_stock"`
	Min     int64  `csv:"min_stock"`
}

// Compare returns the shortages of one portal ordered by product code.
// Products with a threshold but no stock row are not reported.
func Compare(portal string, stock, thresholds map[string]int64, p Policy) []Shortage {
	var out []Shortage
	for code, current := range stock {
		min, ok := thresholds[code]
		if !ok {
			if p.Missing != ZeroMissing {
				continue
			}
			min = 0
		}
		if p.Comparator.Short(current, min) {
			out = append(out, Shortage{Portal: portal, Code: code, Current: current, Min: min})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
