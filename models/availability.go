package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AvailabilityWindow is a clinician-declared interval on a calendar day
// during which consultations may be booked. Start and end are wall-clock
// times on the same day, format "HH:MM" in 24h.
type AvailabilityWindow struct {
	gorm.Model
	ProfessionalID uint          `json:"professional_id"`
	Professional   User          `json:"professional,omitempty" gorm:"foreignKey:ProfessionalID"`
	Date           time.Time     `json:"date"`       // calendar day, midnight UTC
	StartTime      string        `json:"start_time"` // Format "HH:MM" in 24h
	EndTime        string        `json:"end_time"`   // Format "HH:MM" in 24h
	Reservations   []Reservation `json:"reservations,omitempty" gorm:"foreignKey:AvailabilityID"`
}

func (AvailabilityWindow) TableName() string {
	return "availability_windows"
}

// WindowStart resolves the window's opening instant on its calendar day.
func (w *AvailabilityWindow) WindowStart() (time.Time, error) {
	return combineDateClock(w.Date, w.StartTime)
}

// WindowEnd resolves the window's closing instant on its calendar day.
func (w *AvailabilityWindow) WindowEnd() (time.Time, error) {
	return combineDateClock(w.Date, w.EndTime)
}

func combineDateClock(date time.Time, clock string) (time.Time, error) {
	layout := "15:04"
	t, err := time.Parse(layout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format %q: %v", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}
