package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount decodes a money cell accepting both separator conventions:
// Turkish "1.234,56" and anglo "1,234.56", with or without a currency suffix
// ("1.500,00 TL", "₺1.500"). Empty cells decode to zero, not an error,
// because most carriers leave optional amount columns blank.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = stripCurrency(s)
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	s = normalizeSeparators(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("could not parse amount %q: %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

func stripCurrency(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-', r == '(', r == ')':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeSeparators decides which of '.' and ',' is the decimal mark.
// Whichever separator appears last is decimal; the other is a thousands
// grouper. A single separator followed by exactly three digits and preceded
// by at most three is treated as grouping only when it is a comma-grouped
// anglo number — the ambiguous "1.500" case resolves as Turkish thousands.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			// 1234,5 or 1234,56 → decimal comma
			s = strings.Replace(s, ",", ".", 1)
		} else if strings.Count(s, ",") == 1 && lastComma <= 3 && len(s)-lastComma-1 == 3 && s[:lastComma] != "0" {
			// "1,500" → anglo thousands
			s = strings.ReplaceAll(s, ",", "")
		} else if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			// "12345,678" → treat as decimal comma
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			// 1.234.567 → Turkish thousands
			s = strings.ReplaceAll(s, ".", "")
		} else if lastDot <= 3 && len(s)-lastDot-1 == 3 && len(s) > 4 && s[:lastDot] != "0" {
			// "1.500" → Turkish thousands
			s = strings.ReplaceAll(s, ".", "")
		}
		// "1500.25", "0.5" keep the dot as decimal
	}
	return s
}

var errNotANumber = errors.New("cell is not numeric")

// ParseIntCell reads an integer cell ("1", "1,0", "1.0" all mean 1).
func ParseIntCell(s string) (int, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return 0, errNotANumber
	}
	return int(d.IntPart()), nil
}
