// Package workhours classifies a participant's local wall-clock time against
// a per-country working-hours policy.
package workhours

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the working-hours policy for one country: an optimal (green)
// window, two acceptable (orange) buffer windows around it, and the set of
// weekdays that count as working days. Window bounds are "HH:MM" or
// "HH:MM:SS" wall-clock strings; all windows are half-open [start, end).
//
// The engine does not validate window layout at runtime. Orange windows must
// not overlap the green window, the morning orange precedes it and the
// evening orange follows it; configuration entry points should check bounds
// with ParseClock before handing a Config to the classifier.
type Config struct {
	GreenStart         string         `yaml:"green_start" json:"green_start"`
	GreenEnd           string         `yaml:"green_end" json:"green_end"`
	OrangeMorningStart string         `yaml:"orange_morning_start" json:"orange_morning_start"`
	OrangeMorningEnd   string         `yaml:"orange_morning_end" json:"orange_morning_end"`
	OrangeEveningStart string         `yaml:"orange_evening_start" json:"orange_evening_start"`
	OrangeEveningEnd   string         `yaml:"orange_evening_end" json:"orange_evening_end"`
	WorkDays           []time.Weekday `yaml:"work_days" json:"work_days"`

	win windows
}

// windows holds the minute-of-day bounds parsed from the config's clock
// strings, so classification does not re-parse them for every
// participant-hour pair.
type windows struct {
	greenStart, greenEnd     int
	morningStart, morningEnd int
	eveningStart, eveningEnd int
	parsed                   bool
}

// parseWindows converts the clock strings to minute bounds. A malformed
// bound parses as 00:00, which leaves its window empty; config entry points
// are expected to have validated with ParseClock already.
func parseWindows(c Config) windows {
	gs, _ := ParseClock(c.GreenStart)
	ge, _ := ParseClock(c.GreenEnd)
	ms, _ := ParseClock(c.OrangeMorningStart)
	me, _ := ParseClock(c.OrangeMorningEnd)
	es, _ := ParseClock(c.OrangeEveningStart)
	ee, _ := ParseClock(c.OrangeEveningEnd)
	return windows{
		greenStart: gs, greenEnd: ge,
		morningStart: ms, morningEnd: me,
		eveningStart: es, eveningEnd: ee,
		parsed: true,
	}
}

// compiled returns the precomputed minute bounds, parsing on the spot for
// configs built as plain literals.
func (c Config) compiled() windows {
	if c.win.parsed {
		return c.win
	}
	return parseWindows(c)
}

// DefaultConfig returns the policy applied to countries without an explicit
// configuration: 09:00-17:00 optimal, one acceptable hour before and two
// after, Monday through Friday.
func DefaultConfig() Config {
	cfg := Config{
		GreenStart:         "09:00",
		GreenEnd:           "17:00",
		OrangeMorningStart: "08:00",
		OrangeMorningEnd:   "09:00",
		OrangeEveningStart: "17:00",
		OrangeEveningEnd:   "19:00",
		WorkDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
	}
	cfg.win = parseWindows(cfg)
	return cfg
}

// IsWorkDay reports whether d is in the config's work-day set.
func (c Config) IsWorkDay(d time.Weekday) bool {
	for _, wd := range c.WorkDays {
		if wd == d {
			return true
		}
	}
	return false
}

// ConfigSet maps ISO country codes to working-hours policies, falling back
// to Default for countries without one.
type ConfigSet struct {
	Default   Config            `yaml:"default"`
	Countries map[string]Config `yaml:"countries"`
}

// DefaultConfigSet returns a set with no per-country overrides.
func DefaultConfigSet() ConfigSet {
	return ConfigSet{Default: DefaultConfig()}
}

// For returns the policy for a country code, falling back to the default.
func (s ConfigSet) For(country string) Config {
	if cfg, ok := s.Countries[strings.ToUpper(country)]; ok {
		return cfg
	}
	return s.Default
}

// LoadConfigSet reads a ConfigSet from a YAML file. Country keys are
// normalized to upper case; an absent default falls back to DefaultConfig.
func LoadConfigSet(path string) (ConfigSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ConfigSet{}, fmt.Errorf("reading country config: %w", err)
	}

	var set ConfigSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return ConfigSet{}, fmt.Errorf("parsing country config: %w", err)
	}

	if set.Default.GreenStart == "" {
		set.Default = DefaultConfig()
	}
	set.Default.win = parseWindows(set.Default)
	normalized := make(map[string]Config, len(set.Countries))
	for cc, cfg := range set.Countries {
		cfg.win = parseWindows(cfg)
		normalized[strings.ToUpper(cc)] = cfg
	}
	set.Countries = normalized
	return set, nil
}

// ParseClock parses an "HH:MM" or "HH:MM:SS" wall-clock string into minutes
// since midnight. Seconds are accepted and discarded since all window
// comparisons happen at minute granularity. Exposed so configuration entry
// points can validate window bounds before they reach the classifier.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock string %q: want HH:MM or HH:MM:SS", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock string %q: bad hour: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock string %q: bad minute: %w", s, err)
	}
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return 0, fmt.Errorf("invalid clock string %q: bad second: %w", s, err)
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock string %q: out of range", s)
	}
	return hour*60 + minute, nil
}
