package models

import (
	"time"

	"gorm.io/gorm"
)

// Consultation is the confirmed, scheduled outcome of an accepted
// reservation. One-to-one with its originating reservation.
type Consultation struct {
	gorm.Model
	ReservationID   uint        `json:"reservation_id" gorm:"uniqueIndex"`
	Reservation     Reservation `json:"reservation,omitempty" gorm:"foreignKey:ReservationID"`
	ScheduledAt     time.Time   `json:"scheduled_at"`
	DurationMinutes int         `json:"duration_minutes"`
	Price           float64     `json:"price"`
	AccessLink      string      `json:"access_link,omitempty"`
}
