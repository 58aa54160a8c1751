// Package amount parses and formats human-entered currency magnitudes such as "500K" or "2.5b".
package amount

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedAmount is returned for empty, negative, non-numeric or overflowing input.
var ErrMalformedAmount = errors.New("malformed amount")

type suffix struct {
	letter string
	scale  int64
}

// Largest first; Format relies on this order.
var suffixes = []suffix{
	{"B", 1_000_000_000},
	{"M", 1_000_000},
	{"K", 1_000},
}

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Parse converts text like "1500", "1.5k", "2B" or "1,000,000" to an integer amount.
// Fractions left after scaling are truncated toward zero.
func Parse(text string) (int64, error) {
	s := strings.TrimSpace(text)
	s = strings.NewReplacer(",", "", "_", "").Replace(s)
	if s == "" {
		return 0, ErrMalformedAmount
	}

	scale := int64(1)
	last := strings.ToUpper(s[len(s)-1:])
	for _, sf := range suffixes {
		if last == sf.letter {
			scale = sf.scale
			s = strings.TrimSpace(s[:len(s)-1])
			break
		}
	}
	if s == "" || s[0] == '-' || s[0] == '+' {
		return 0, ErrMalformedAmount
	}
	// decimal accepts exponents; amounts typed by people never need them.
	if strings.ContainsAny(s, "eE") {
		return 0, ErrMalformedAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrMalformedAmount
	}
	d = d.Mul(decimal.NewFromInt(scale)).Truncate(0)
	if d.IsNegative() || d.GreaterThan(maxAmount) {
		return 0, ErrMalformedAmount
	}
	return d.IntPart(), nil
}

// Format renders n with the largest suffix it reaches and two truncated decimals,
// e.g. 1_234_567 -> "1.23M". Values below 1000 are printed as-is.
func Format(n int64) string {
	neg := n < 0
	d := decimal.NewFromInt(n).Abs()

	out := d.String()
	for _, sf := range suffixes {
		scale := decimal.NewFromInt(sf.scale)
		if d.GreaterThanOrEqual(scale) {
			out = d.Div(scale).Truncate(2).StringFixed(2) + sf.letter
			break
		}
	}
	if neg {
		return "-" + out
	}
	return out
}
