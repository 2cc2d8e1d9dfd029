// Package clock resolves absolute timestamps into user-facing logical days.
// A logical day flips at a configured local hour rather than midnight, so a
// late-night check-in still counts toward the evening's day.
package clock

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a logical calendar date in ISO format (YYYY-MM-DD). Stored as text
// so day equality, ranges and grouping behave identically across drivers.
type Day string

// DayOf truncates a timestamp to its calendar date.
func DayOf(t time.Time) Day {
	return Day(t.Format(dayLayout))
}

// ParseDay validates and normalizes an ISO date string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Time returns the day as a UTC midnight instant. Zero time for a malformed day.
func (d Day) Time() time.Time {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the day shifted by n calendar days.
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

// Sub returns the number of calendar days between d and other (d - other).
func (d Day) Sub(other Day) int {
	return int(d.Time().Sub(other.Time()).Hours() / 24)
}

func (d Day) String() string { return string(d) }

// Weekday returns the day of week.
func (d Day) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// Resolver converts absolute instants into logical days using a fixed
// timezone and rollover hour. Immutable after construction.
type Resolver struct {
	loc          *time.Location
	rolloverHour int
	now          func() time.Time
}

func NewResolver(timezone string, rolloverHour int) (*Resolver, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	if rolloverHour < 0 || rolloverHour > 23 {
		return nil, fmt.Errorf("rollover hour must be 0-23, got %d", rolloverHour)
	}
	return &Resolver{loc: loc, rolloverHour: rolloverHour, now: time.Now}, nil
}

// NewFixedResolver returns a resolver whose "now" is pinned, for tests.
func NewFixedResolver(timezone string, rolloverHour int, now time.Time) (*Resolver, error) {
	r, err := NewResolver(timezone, rolloverHour)
	if err != nil {
		return nil, err
	}
	r.now = func() time.Time { return now }
	return r, nil
}

// EffectiveDay maps an instant to its logical day: the local calendar date,
// shifted back one day when the local hour is before the rollover hour.
func (r *Resolver) EffectiveDay(t time.Time) Day {
	local := t.In(r.loc)
	day := DayOf(local)
	if local.Hour() < r.rolloverHour {
		day = day.AddDays(-1)
	}
	return day
}

// Today returns the current logical day.
func (r *Resolver) Today() Day {
	return r.EffectiveDay(r.now())
}
