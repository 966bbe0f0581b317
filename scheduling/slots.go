package scheduling

import (
	"fmt"
	"time"

	"github.com/sarthakjain/careslot/models"
)

// DefaultSlotDuration is the global slot grid tick. Window bounds and slot
// start times must align to it.
const DefaultSlotDuration = 45 * time.Minute

// GenerateSlots expands one availability window into the ordered sequence of
// bookable slot start times. Starting at windowStart, a candidate is emitted
// every slotDuration as long as the full slot still fits before windowEnd.
// Candidates already occupied or not strictly later than now are dropped.
// Occupied times outside the window are ignored. Pure function: same inputs
// always yield the same strictly increasing, duplicate-free sequence.
func GenerateSlots(windowStart, windowEnd time.Time, occupied []time.Time, now time.Time, slotDuration time.Duration) ([]time.Time, error) {
	if slotDuration <= 0 {
		return nil, fmt.Errorf("%w: slot duration must be positive, got %s", ErrValidation, slotDuration)
	}
	if !windowStart.Before(windowEnd) {
		return nil, fmt.Errorf("%w: window start %s is not before end %s", ErrValidation,
			windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339))
	}

	taken := make(map[int64]bool, len(occupied))
	for _, o := range occupied {
		taken[o.Unix()] = true
	}

	slots := []time.Time{}
	for cursor := windowStart; !cursor.Add(slotDuration).After(windowEnd); cursor = cursor.Add(slotDuration) {
		if taken[cursor.Unix()] {
			continue
		}
		if !cursor.After(now) {
			continue
		}
		slots = append(slots, cursor)
	}
	return slots, nil
}

// SlotsForWindow resolves a persisted window's wall-clock bounds and
// generates its free slots.
func SlotsForWindow(w *models.AvailabilityWindow, occupied []time.Time, now time.Time, slotDuration time.Duration) ([]time.Time, error) {
	start, err := w.WindowStart()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	end, err := w.WindowEnd()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return GenerateSlots(start, end, occupied, now, slotDuration)
}

// slotOnGrid reports whether candidate is one of the window's grid ticks,
// regardless of occupancy or the current time.
func slotOnGrid(windowStart, windowEnd, candidate time.Time, slotDuration time.Duration) bool {
	for cursor := windowStart; !cursor.Add(slotDuration).After(windowEnd); cursor = cursor.Add(slotDuration) {
		if cursor.Equal(candidate) {
			return true
		}
	}
	return false
}
