package config

import "time"

const (
	DefaultTimeZone = "Europe/Istanbul"

	// Import session lifetime: extended on every non-final batch confirmation.
	ImportSessionTTL = 30 * time.Minute

	// How often the cron sweeper looks for expired import sessions.
	DefaultSessionSweepSchedule = "*/1 * * * *"

	// Plate-based customer matching only considers policies issued within
	// this many years of "now".
	PlateLookbackYears = 2

	// Rows per commit window when the caller does not pass take.
	DefaultBatchSize = 500

	// Header detection scans at most this many rows / columns of a sheet.
	HeaderScanMaxRows = 10
	HeaderScanMaxCols = 15

	// Retention audit for the policy pool.
	DefaultPoolRetentionSchedule = "0 3 * * *"
)
