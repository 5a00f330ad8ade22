package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"AcenteCorpSaas/api/constants"
)

// Day-first layouts tried before anything else. Turkish carrier exports are
// overwhelmingly dd.MM.yyyy or dd/MM/yyyy; the exact layouts MUST come before
// the month-first set or 03.04.2025 silently flips month and day.
var dayFirstLayouts = []string{
	constants.DateFormatTR, "2.1.2006", "02.01.06", "2.1.06",
	"02/01/2006", "2/1/2006", "02/01/06", "2/1/06",
	"02-01-2006", "2-1-2006", "02-01-06",
	"02.01.2006 15:04:05", "02.01.2006 15:04",
	"02/01/2006 15:04:05", "02/01/2006 15:04",
	"02-01-2006 15:04:05",
	"2 January 2006", "02 January 2006",
}

var monthFirstLayouts = []string{
	"01/02/2006", "1/2/2006", "01/02/06", "1/2/06",
	"01-02-2006", "1-2-2006",
	"01/02/2006 15:04:05", "01/02/2006 3:04:05 PM",
}

// ISO and export-tool layouts, unambiguous in either locale.
var neutralLayouts = []string{
	constants.DateFormat, constants.DateTimeFormat, constants.DateFormatISO,
	time.RFC3339, "2006/01/02", "2006.01.02",
	"02-Jan-2006", "02-Jan-06", "2-Jan-2006",
}

// ParseDate decodes a carrier date cell. Order: exact layouts of the
// preferred locale, neutral layouts, the opposite locale, then the OLE/Excel
// serial fallback for sheets whose date cells arrive as raw numbers.
func ParseDate(s string, monthFirst bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date string")
	}

	primary, secondary := dayFirstLayouts, monthFirstLayouts
	if monthFirst {
		primary, secondary = monthFirstLayouts, dayFirstLayouts
	}
	for _, layout := range primary {
		if t, err := time.Parse(layout, s); err == nil {
			return normalizeCentury(t), nil
		}
	}
	for _, layout := range neutralLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return normalizeCentury(t), nil
		}
	}
	for _, layout := range secondary {
		if t, err := time.Parse(layout, s); err == nil {
			return normalizeCentury(t), nil
		}
	}
	if t, err := parseOLESerialDate(s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("could not parse date: %s", s)
}

// parseOLESerialDate converts an OLE automation / Excel serial date
// (serial 1 is 1900-01-01, fractional part is time of day) into a
// time.Time. Serial 60 never existed: Excel carries the fake 1900-02-29,
// so later serials are shifted back by one day.
func parseOLESerialDate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	if f < 1 || f > 200000 {
		return time.Time{}, fmt.Errorf("serial %v out of plausible date range", f)
	}
	days := int(f)
	frac := f - float64(days)
	if days > 59 {
		days--
	}
	base := time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	d := base.AddDate(0, 0, days)
	d = d.Add(time.Duration(frac * float64(24*time.Hour)))
	return d, nil
}

// normalizeCentury lifts two-digit years parsed into year < 100 ("13.12.25")
// into the 2000s.
func normalizeCentury(t time.Time) time.Time {
	if y := t.Year(); y > 0 && y < 100 {
		return t.AddDate(2000, 0, 0)
	}
	return t
}
