// Package clock supplies the current instant and all timezone-aware calendar
// conversions used by the streak and reminder logic. Every caller resolves a
// user's effective zone through ResolveZone so defaulting lives in one place.
package clock

import "time"

// DefaultZone is used when a user has no stored timezone.
const DefaultZone = "Africa/Lagos"

// Clock abstracts the current time so services can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns a Clock backed by the wall clock (UTC instants).
func System() Clock { return systemClock{} }

// Fixed is a Clock pinned to a single instant, for tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// ResolveZone resolves an IANA zone name to a location, falling back to
// DefaultZone for empty or unknown names, and to UTC if even the default
// cannot be loaded.
func ResolveZone(name string) *time.Location {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc, err = time.LoadLocation(DefaultZone)
		if err != nil {
			return time.UTC
		}
	}
	return loc
}

// Day returns the UTC-normalized calendar day of t observed in loc: the local
// year/month/day reinterpreted as midnight UTC. Ledger entries and the per-user
// rollover/streak markers are keyed on this value.
func Day(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekdayName returns the full weekday name ("Monday".."Sunday") of t in loc.
func WeekdayName(t time.Time, loc *time.Location) string {
	return t.In(loc).Weekday().String()
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return Day(a, loc).Equal(Day(b, loc))
}
