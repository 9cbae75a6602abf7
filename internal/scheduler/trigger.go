package scheduler

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Trigger fires once per calendar day at a wall-clock time in Location.
type Trigger struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// ParseTrigger reads an "HH:MM" time of day and an IANA time zone name.
func ParseTrigger(at, timezone string) (Trigger, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return Trigger{}, fmt.Errorf("invalid run_at %q: %w", at, err)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Trigger{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return Trigger{Hour: t.Hour(), Minute: t.Minute(), Location: loc}, nil
}

func (t Trigger) location() *time.Location {
	if t.Location == nil {
		return time.UTC
	}
	return t.Location
}

// Next returns the first firing time strictly after now.
func (t Trigger) Next(now time.Time) time.Time {
	local := now.In(t.location())
	next := time.Date(local.Year(), local.Month(), local.Day(), t.Hour, t.Minute, 0, 0, t.location())
	if !next.After(now) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, t.Hour, t.Minute, 0, 0, t.location())
	}
	return next
}

// Day is the calendar day of now in the trigger's time zone.
func (t Trigger) Day(now time.Time) string {
	return now.In(t.location()).Format(dayLayout)
}
