package workhours

import "time"

// Tier is one of the four ordered fairness tiers for a single participant at
// a single candidate hour, from optimal to unacceptable.
type Tier string

const (
	TierGreen    Tier = "green"
	TierOrange   Tier = "orange"
	TierRed      Tier = "red"
	TierCritical Tier = "critical"
)

// Status is the classification outcome for one participant at one local time.
type Status struct {
	Tier   Tier   `json:"tier"`
	Reason string `json:"reason"`
}

// Determine classifies a local wall-clock time against a country policy.
// Rules apply in strict priority order, first match wins:
//
//  1. holiday on the local calendar date -> critical
//  2. local weekday outside the work-day set -> critical
//  3. inside the green window -> green
//  4. inside the morning or evening orange window -> orange
//  5. otherwise -> red
//
// A holiday therefore yields critical regardless of time of day, and a
// non-working day yields critical even during green hours.
func Determine(local time.Time, cfg Config, onHoliday bool) Status {
	if onHoliday {
		return Status{Tier: TierCritical, Reason: "national holiday"}
	}
	if !cfg.IsWorkDay(local.Weekday()) {
		return Status{Tier: TierCritical, Reason: "non-working day"}
	}

	win := cfg.compiled()
	minute := local.Hour()*60 + local.Minute()
	switch {
	case within(minute, win.greenStart, win.greenEnd):
		return Status{Tier: TierGreen, Reason: "optimal hours"}
	case within(minute, win.morningStart, win.morningEnd):
		return Status{Tier: TierOrange, Reason: "acceptable, early"}
	case within(minute, win.eveningStart, win.eveningEnd):
		return Status{Tier: TierOrange, Reason: "acceptable, late"}
	default:
		return Status{Tier: TierRed, Reason: "outside working hours"}
	}
}

// within reports start <= minute < end. The half-open comparison keeps a
// boundary minute from counting toward two adjacent windows.
func within(minute, start, end int) bool {
	return minute >= start && minute < end
}
