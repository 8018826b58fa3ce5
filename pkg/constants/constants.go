// Package constants defines shared constants for the fairmeet engine.
package constants

import "time"

// HolidayCacheTTL is the freshness window for cached holiday data.
// Public holiday calendars change rarely; a week bounds staleness while
// keeping external traffic to a handful of calls per country per year.
const HolidayCacheTTL = 7 * 24 * time.Hour

// FetchAttempts and FetchBackoff bound the holiday source retry loop:
// three attempts with exponential backoff (1s, 2s, 4s), so a fully failing
// lookup delays a request by at most 7 seconds.
const (
	FetchAttempts = 3
	FetchBackoff  = time.Second
)

// HTTPTimeout bounds each individual call to the holiday source.
const HTTPTimeout = 10 * time.Second

// MinYear and MaxYear bound holiday lookups to the range the external
// source actually carries data for.
const (
	MinYear = 1975
	MaxYear = 2099
)
