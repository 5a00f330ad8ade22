package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDateDayFirst(t *testing.T) {
	cases := map[string]time.Time{
		"13.12.2025":          date(2025, 12, 13),
		"3.4.2025":            date(2025, 4, 3),
		"13/12/2025":          date(2025, 12, 13),
		"13-12-2025":          date(2025, 12, 13),
		"13.12.2025 14:30:00": time.Date(2025, 12, 13, 14, 30, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseDate(in, false)
		require.NoError(t, err, "input %q", in)
		assert.True(t, want.Equal(got), "input %q: got %v", in, got)
	}
}

// 03.04.2025 must read as the 3rd of April, not March 4th, unless the
// carrier is flagged month-first.
func TestParseDateLocalePreference(t *testing.T) {
	got, err := ParseDate("03.04.2025", false)
	require.NoError(t, err)
	assert.True(t, date(2025, 4, 3).Equal(got))

	got, err = ParseDate("03/04/2025", true)
	require.NoError(t, err)
	assert.True(t, date(2025, 3, 4).Equal(got))
}

func TestParseDateNeutralLayouts(t *testing.T) {
	for in, want := range map[string]time.Time{
		"2025-12-13":          date(2025, 12, 13),
		"2025-12-13 14:30:00": time.Date(2025, 12, 13, 14, 30, 0, 0, time.UTC),
		"2025/12/13":          date(2025, 12, 13),
		"13-Dec-2025":         date(2025, 12, 13),
	} {
		got, err := ParseDate(in, false)
		require.NoError(t, err, "input %q", in)
		assert.True(t, want.Equal(got), "input %q: got %v", in, got)
	}
}

func TestParseDateTwoDigitYear(t *testing.T) {
	got, err := ParseDate("13.12.25", false)
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())
}

func TestParseDateOLESerial(t *testing.T) {
	// 45992 is 2025-12-01 in the Excel epoch.
	got, err := ParseDate("45992", false)
	require.NoError(t, err)
	assert.True(t, date(2025, 12, 1).Equal(got))

	// Fractional part is time of day.
	got, err = ParseDate("45992.5", false)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Hour())

	// Serials after the phantom 1900-02-29 are shifted back by one day:
	// 61 is 1900-03-01.
	got, err = ParseDate("61", false)
	require.NoError(t, err)
	assert.True(t, date(1900, 3, 1).Equal(got))

	// Serials before it are not: 59 is 1900-02-28.
	got, err = ParseDate("59", false)
	require.NoError(t, err)
	assert.True(t, date(1900, 2, 28).Equal(got))
}

func TestParseDateRejects(t *testing.T) {
	for _, in := range []string{"", "not a date", "99999999", "0"} {
		_, err := ParseDate(in, false)
		assert.Error(t, err, "input %q", in)
	}
}
