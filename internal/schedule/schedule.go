// Package schedule decides which calendar days a loop expects a check-in.
// All dates are handled as midnight-UTC calendar days.
package schedule

import (
	"errors"
	"time"
)

type Kind string

const (
	Daily             Kind = "daily"
	Weekdays          Kind = "weekdays"
	ThreeTimesPerWeek Kind = "3x/week"
	Custom            Kind = "custom"
)

var (
	ErrInvalidKind     = errors.New("schedule: unrecognized frequency")
	ErrEmptyCustomDays = errors.New("schedule: custom frequency requires at least one day")
	ErrInvalidDayName  = errors.New("schedule: invalid day name")
	ErrMalformedDay    = errors.New("schedule: malformed date")
)

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// Descriptor encodes a loop's recurrence pattern. For Custom kind the
// days set is non-empty; New enforces this.
type Descriptor struct {
	Kind Kind
	Days map[time.Weekday]bool
}

// New builds a Descriptor from the persisted frequency representation:
// one of the known labels, or the "custom" label with a list of lowercase
// three-letter day names. Unknown labels are rejected here so that a bad
// frequency never reaches the streak walk.
func New(frequency string, customDays []string) (Descriptor, error) {
	switch Kind(frequency) {
	case Daily, Weekdays, ThreeTimesPerWeek:
		return Descriptor{Kind: Kind(frequency)}, nil
	case Custom:
		if len(customDays) == 0 {
			return Descriptor{}, ErrEmptyCustomDays
		}
		days := make(map[time.Weekday]bool, len(customDays))
		for _, name := range customDays {
			wd, ok := dayNames[name]
			if !ok {
				return Descriptor{}, ErrInvalidDayName
			}
			days[wd] = true
		}
		return Descriptor{Kind: Custom, Days: days}, nil
	}
	return Descriptor{}, ErrInvalidKind
}

// ExpectsAction reports whether an action is expected on the given day.
// Pure and total: a Descriptor with an unknown Kind (possible only if it
// bypassed New) is treated as daily rather than dropping days.
func (d Descriptor) ExpectsAction(day time.Time) bool {
	wd := Normalize(day).Weekday()
	switch d.Kind {
	case Daily:
		return true
	case Weekdays:
		return wd >= time.Monday && wd <= time.Friday
	case ThreeTimesPerWeek:
		// Fixed default pattern; the label does not carry which three days.
		return wd == time.Monday || wd == time.Wednesday || wd == time.Friday
	case Custom:
		return d.Days[wd]
	}
	return true
}

// Normalize truncates a time to midnight UTC.
func Normalize(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two times fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return Normalize(a).Equal(Normalize(b))
}

// DayKey formats a time as its ISO calendar day (YYYY-MM-DD, UTC).
func DayKey(t time.Time) string {
	return Normalize(t).Format("2006-01-02")
}

// ParseDay parses an ISO calendar day or RFC 3339 timestamp into a
// normalized midnight-UTC day. Unparseable input is an error, never
// coerced to today.
func ParseDay(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Normalize(t), nil
	}
	return time.Time{}, ErrMalformedDay
}
