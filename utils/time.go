package utils

import (
	"fmt"
	"time"
)

const clockLayout = "15:04"

// ParseClock parses an "HH:MM" wall-clock string into minutes since midnight.
func ParseClock(clock string) (int, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time format %q, expected HH:MM", clock)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// AlignedToGrid reports whether an "HH:MM" clock falls on the global slot
// grid, counted from midnight.
func AlignedToGrid(clock string, slotDuration time.Duration) (bool, error) {
	minutes, err := ParseClock(clock)
	if err != nil {
		return false, err
	}
	tick := int(slotDuration / time.Minute)
	if tick <= 0 {
		return false, fmt.Errorf("invalid slot duration %s", slotDuration)
	}
	return minutes%tick == 0, nil
}

// ParseDay parses a "YYYY-MM-DD" calendar day into its midnight-UTC instant.
func ParseDay(day string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", day)
	}
	return d, nil
}
