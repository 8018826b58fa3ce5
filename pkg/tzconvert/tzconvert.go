// Package tzconvert converts between absolute UTC instants and participant
// wall-clock time. ALL times in the codebase are stored in UTC; these
// functions handle the projection into IANA zones for classification and
// display only.
package tzconvert

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidTimezone reports an identifier the timezone database does not recognize.
var ErrInvalidTimezone = errors.New("invalid timezone")

// Offset describes the UTC offset in effect at a particular instant.
type Offset struct {
	// Minutes east of UTC; negative west of UTC.
	Minutes int
	// DST reports whether daylight saving appears active, inferred by
	// comparing against January 1 of the same year. January 1 is DST-free
	// in northern-hemisphere zones; for southern-hemisphere zones the flag
	// inverts, so it is informational only. Minutes is always exact.
	DST bool
}

var (
	locMu    sync.RWMutex
	locCache = make(map[string]*time.Location)
)

// location returns the *time.Location for an IANA zone name, memoized since
// heatmap generation resolves the same handful of zones 24 times per request.
func location(tz string) (*time.Location, error) {
	locMu.RLock()
	loc, ok := locCache[tz]
	locMu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}

	locMu.Lock()
	locCache[tz] = loc
	locMu.Unlock()
	return loc, nil
}

// ToLocal projects an absolute instant into the wall-clock representation for
// the given IANA timezone, using the DST rules valid at that instant.
func ToLocal(t time.Time, tz string) (time.Time, error) {
	loc, err := location(tz)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

// ToUTC interprets the wall-clock fields of local in the given IANA timezone
// and returns the corresponding absolute instant. Inverse of ToLocal.
func ToUTC(local time.Time, tz string) (time.Time, error) {
	loc, err := location(tz)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc).UTC(), nil
}

// OffsetAt returns the UTC offset in effect at t for the given IANA timezone.
func OffsetAt(t time.Time, tz string) (Offset, error) {
	loc, err := location(tz)
	if err != nil {
		return Offset{}, err
	}

	local := t.In(loc)
	_, secs := local.Zone()

	// Reference offset on January 1 at noon of the same local year; a
	// differing offset means a daylight-saving rule is in play.
	_, refSecs := time.Date(local.Year(), time.January, 1, 12, 0, 0, 0, loc).Zone()

	return Offset{Minutes: secs / 60, DST: secs != refSecs}, nil
}
