package scheduling

import (
	"testing"
	"time"

	"github.com/sarthakjain/careslot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, clock string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, "2026-03-12T"+clock+":00Z")
	require.NoError(t, err)
	return ts
}

func TestGenerateSlots(t *testing.T) {
	dayBefore := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		start    string
		end      string
		occupied []string
		now      time.Time
		want     []string
	}{
		{
			name:  "full window with no occupancy",
			start: "09:00", end: "10:30",
			now:  dayBefore,
			want: []string{"09:00", "09:45"},
		},
		{
			name:  "final partial segment is excluded",
			start: "09:00", end: "10:29",
			now:  dayBefore,
			want: []string{"09:00"},
		},
		{
			name:  "window shorter than one slot",
			start: "09:00", end: "09:30",
			now:  dayBefore,
			want: []string{},
		},
		{
			name:  "occupied slot is excluded",
			start: "09:00", end: "10:30",
			occupied: []string{"09:45"},
			now:      dayBefore,
			want:     []string{"09:00"},
		},
		{
			name:  "occupied times outside the window are ignored",
			start: "09:00", end: "10:30",
			occupied: []string{"08:15", "12:00"},
			now:      dayBefore,
			want:     []string{"09:00", "09:45"},
		},
		{
			name:  "fully occupied window",
			start: "09:00", end: "10:30",
			occupied: []string{"09:00", "09:45"},
			now:      dayBefore,
			want:     []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			occupied := make([]time.Time, 0, len(tc.occupied))
			for _, o := range tc.occupied {
				occupied = append(occupied, at(t, o))
			}

			got, err := GenerateSlots(at(t, tc.start), at(t, tc.end), occupied, tc.now, DefaultSlotDuration)
			require.NoError(t, err)

			want := make([]time.Time, 0, len(tc.want))
			for _, w := range tc.want {
				want = append(want, at(t, w))
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestGenerateSlotsExcludesElapsedStarts(t *testing.T) {
	start, end := at(t, "09:00"), at(t, "10:30")

	// By 09:50 both candidate starts have elapsed.
	got, err := GenerateSlots(start, end, nil, at(t, "09:50"), DefaultSlotDuration)
	require.NoError(t, err)
	assert.Empty(t, got)

	// At 09:10 only the 09:45 slot is still offerable.
	got, err = GenerateSlots(start, end, nil, at(t, "09:10"), DefaultSlotDuration)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(t, "09:45")}, got)

	// A start exactly at now is not strictly later and must be dropped.
	got, err = GenerateSlots(start, end, nil, at(t, "09:00"), DefaultSlotDuration)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(t, "09:45")}, got)
}

func TestGenerateSlotsIsDeterministic(t *testing.T) {
	start, end := at(t, "09:00"), at(t, "13:30")
	occupied := []time.Time{at(t, "10:30"), at(t, "12:00")}
	now := at(t, "08:00")

	first, err := GenerateSlots(start, end, occupied, now, DefaultSlotDuration)
	require.NoError(t, err)
	second, err := GenerateSlots(start, end, occupied, now, DefaultSlotDuration)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		assert.True(t, first[i].After(first[i-1]), "sequence must be strictly increasing")
	}
}

func TestGenerateSlotsRejectsBadInput(t *testing.T) {
	_, err := GenerateSlots(at(t, "10:00"), at(t, "09:00"), nil, time.Time{}, DefaultSlotDuration)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = GenerateSlots(at(t, "09:00"), at(t, "09:00"), nil, time.Time{}, DefaultSlotDuration)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = GenerateSlots(at(t, "09:00"), at(t, "10:00"), nil, time.Time{}, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSlotsForWindow(t *testing.T) {
	w := &models.AvailabilityWindow{
		Date:      time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "10:30",
	}

	got, err := SlotsForWindow(w, nil, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), DefaultSlotDuration)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(t, "09:00"), at(t, "09:45")}, got)

	w.EndTime = "25:99"
	_, err = SlotsForWindow(w, nil, time.Time{}, DefaultSlotDuration)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSlotOnGrid(t *testing.T) {
	start, end := at(t, "09:00"), at(t, "10:30")

	assert.True(t, slotOnGrid(start, end, at(t, "09:00"), DefaultSlotDuration))
	assert.True(t, slotOnGrid(start, end, at(t, "09:45"), DefaultSlotDuration))
	assert.False(t, slotOnGrid(start, end, at(t, "10:30"), DefaultSlotDuration), "would overrun the window")
	assert.False(t, slotOnGrid(start, end, at(t, "09:20"), DefaultSlotDuration), "off the grid")
}
