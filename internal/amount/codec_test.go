package amount

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
	}{
		{"plain integer", "1500", 1500},
		{"thousands", "500K", 500_000},
		{"lowercase suffix", "500k", 500_000},
		{"fractional thousands", "1.5k", 1_500},
		{"millions", "2M", 2_000_000},
		{"billions", "2B", 2_000_000_000},
		{"truncates toward zero", "1.2345K", 1_234},
		{"sub-unit fraction truncates", "0.9", 0},
		{"comma separators", "1,000,000", 1_000_000},
		{"underscore separators", "10_000", 10_000},
		{"surrounding space", "  42  ", 42},
		{"space before suffix", "3 m", 3_000_000},
		{"zero", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	inputs := []string{
		"", "   ", "K", "abc", "-5", "-5K", "+5", "1.2.3", "5X", "1e3", "12abc",
		"9999999999B", // overflows int64
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.ErrorIs(t, err, ErrMalformedAmount)
		})
	}
}

func TestParse_MaxInt64(t *testing.T) {
	got, err := Parse("9223372036854775807")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1_000, "1.00K"},
		{500_000, "500.00K"},
		{1_234_567, "1.23M"},
		{1_999_999, "1.99M"},
		{2_000_000_000, "2.00B"},
		{-1_500, "-1.50K"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.input))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, x := range []int64{7, 999, 1_000, 12_340, 500_000, 2_500_000, 75_000_000, 3_000_000_000} {
		got, err := Parse(Format(x))
		require.NoError(t, err)
		assert.Equal(t, x, got, "round trip of %d via %q", x, Format(x))
	}
}

// TestRoundTripProperty checks parse(format(x)) == x for values that fit in two decimals of their tier.
func TestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// step is the smallest value two decimals can express in each suffix tier.
		tier := rapid.IntRange(0, 3).Draw(t, "tier")
		step := []int64{1, 10, 10_000, 10_000_000}[tier]
		lo, hi := int64(100), int64(99_999)
		if tier == 0 {
			lo, hi = 0, 999
		}
		x := rapid.Int64Range(lo, hi).Draw(t, "units") * step

		got, err := Parse(Format(x))
		if err != nil {
			t.Fatalf("Parse(Format(%d)) failed: %v", x, err)
		}
		if got != x {
			t.Fatalf("round trip mismatch: %d -> %q -> %d", x, Format(x), got)
		}
	})
}

// TestFormatNeverOverstatesProperty checks that formatting truncates rather than rounds up.
func TestFormatNeverOverstatesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Int64Range(0, math.MaxInt64/10).Draw(t, "x")
		got, err := Parse(Format(x))
		if err != nil {
			t.Fatalf("Parse(Format(%d)) failed: %v", x, err)
		}
		if got > x {
			t.Fatalf("formatted value %q parses to %d, more than %d", Format(x), got, x)
		}
	})
}
