package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountSeparatorConventions(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		// Turkish convention: dot groups thousands, comma is decimal.
		{"1.234,56", "1234.56"},
		{"12.345.678,90", "12345678.9"},
		{"1234,5", "1234.5"},
		{"1.500", "1500"},
		{"0,500", "0.5"},
		// Anglo convention: comma groups thousands, dot is decimal.
		{"1,234.56", "1234.56"},
		{"1,500", "1500"},
		{"1500.25", "1500.25"},
		{"0.500", "0.5"},
		{"0.5", "0.5"},
		// No separators at all.
		{"1500", "1500"},
		{"0", "0"},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got.String(), "input %q", tc.in)
	}
}

func TestParseAmountCurrencyNoise(t *testing.T) {
	for in, want := range map[string]string{
		"1.500,00 TL":  "1500",
		"₺1.500":       "1500",
		"1,234.56 try": "1234.56",
		" 250,75   ":   "250.75",
	} {
		got, err := ParseAmount(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got.String(), "input %q", in)
	}
}

func TestParseAmountNegatives(t *testing.T) {
	for in, want := range map[string]string{
		"-1.234,56":  "-1234.56",
		"(1.234,56)": "-1234.56",
		"(250)":      "-250",
		"-0,5":       "-0.5",
	} {
		got, err := ParseAmount(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got.String(), "input %q", in)
	}
}

func TestParseAmountEmptyIsZero(t *testing.T) {
	for _, in := range []string{"", "   ", "-", "TL"} {
		got, err := ParseAmount(in)
		require.NoError(t, err, "input %q", in)
		assert.True(t, got.IsZero(), "input %q", in)
	}
}

func TestParseAmountGarbage(t *testing.T) {
	_, err := ParseAmount("1-2")
	assert.Error(t, err)
}

func TestParseIntCell(t *testing.T) {
	for in, want := range map[string]int{
		"1":   1,
		"1,0": 1,
		"1.0": 1,
		"0":   0,
		"12":  12,
	} {
		got, err := ParseIntCell(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	// Letters alone strip down to an empty cell, which reads as zero.
	got, err := ParseIntCell("zeyil")
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	_, err = ParseIntCell("1-2")
	assert.ErrorIs(t, err, errNotANumber)
}
