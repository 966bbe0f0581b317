package models

import (
	"time"
)

type User struct {
	ID               uint                 `json:"id" gorm:"primaryKey"`
	Name             string               `json:"name"`
	Email            string               `json:"email" gorm:"unique"`
	Password         string               `json:"password,omitempty"`
	RoleID           uint                 `json:"role_id"`
	Role             Role                 `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	ConsultationRate float64              `json:"consultation_rate"` // declared per-consultation rate, professionals only
	Bio              string               `json:"bio,omitempty"`
	Availability     []AvailabilityWindow `json:"availability,omitempty" gorm:"foreignKey:ProfessionalID"`
	Reservations     []Reservation        `json:"reservations,omitempty" gorm:"foreignKey:PatientID"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}
