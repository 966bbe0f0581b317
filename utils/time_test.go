package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("09:45")
	assert.NoError(t, err)
	assert.Equal(t, 585, minutes)

	_, err = ParseClock("9h45")
	assert.Error(t, err)
}

func TestAlignedToGrid(t *testing.T) {
	cases := []struct {
		clock   string
		aligned bool
	}{
		{"00:00", true},
		{"09:00", true}, // 540 = 12 * 45
		{"09:45", true}, // 585 = 13 * 45
		{"10:30", true}, // 630 = 14 * 45
		{"09:30", false},
		{"10:00", false}, // 600 is not a multiple of 45 from midnight
	}
	for _, tc := range cases {
		ok, err := AlignedToGrid(tc.clock, 45*time.Minute)
		assert.NoError(t, err)
		assert.Equal(t, tc.aligned, ok, "clock %s", tc.clock)
	}

	_, err := AlignedToGrid("09:00", 0)
	assert.Error(t, err)
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-03-12")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDay("12/03/2026")
	assert.Error(t, err)
}
