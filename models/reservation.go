package models

import (
	"time"

	"gorm.io/gorm"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusAccepted  ReservationStatus = "accepted"
	StatusPaid      ReservationStatus = "paid"
	StatusRefused   ReservationStatus = "refused"
	StatusCancelled ReservationStatus = "cancelled"
)

// transitions is the single source of truth for the reservation lifecycle.
// Anything not listed here is an illegal transition.
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:  {StatusAccepted, StatusRefused, StatusCancelled},
	StatusAccepted: {StatusPaid},
}

// ActiveStatuses are the statuses that occupy a slot. At most one
// reservation per (availability_id, slot_start_time) may hold one of
// these; the partial unique index in db.Migrate enforces it.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusAccepted, StatusPaid}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from s.
func (s ReservationStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Reservation is a patient's request to occupy one slot of an availability
// window, tracked from request through acceptance/refusal, payment and
// cancellation. Status is only ever written by scheduling.Registry.
type Reservation struct {
	gorm.Model
	AvailabilityID uint               `json:"availability_id"`
	Availability   AvailabilityWindow `json:"availability,omitempty" gorm:"foreignKey:AvailabilityID"`
	PatientID      uint               `json:"patient_id"`
	Patient        User               `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
	ProfessionalID uint               `json:"professional_id"`
	Professional   User               `json:"professional,omitempty" gorm:"foreignKey:ProfessionalID"`
	SlotStartTime  time.Time          `json:"slot_start_time"`
	Status         ReservationStatus  `json:"status"`
	RequestedAt    time.Time          `json:"requested_at"`
	Price          float64            `json:"price"`
	PaymentRef     string             `json:"payment_ref,omitempty"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.RequestedAt.IsZero() {
		r.RequestedAt = time.Now().UTC()
	}
	return nil
}
