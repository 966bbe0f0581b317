package scheduling

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sarthakjain/careslot/models"
	"gorm.io/gorm"
)

// ConsultationFactory materializes exactly one Consultation per accepted
// reservation: scheduled at the reserved slot, priced from the reservation
// (itself copied from the clinician's declared rate), with a fresh access
// link. Calling it again for the same reservation returns the existing
// record.
type ConsultationFactory struct {
	slotDuration time.Duration
}

func NewConsultationFactory(slotDuration time.Duration) *ConsultationFactory {
	if slotDuration <= 0 {
		slotDuration = DefaultSlotDuration
	}
	return &ConsultationFactory{slotDuration: slotDuration}
}

func (f *ConsultationFactory) Materialize(tx *gorm.DB, res *models.Reservation) (*models.Consultation, error) {
	var existing models.Consultation
	err := tx.Where("reservation_id = ?", res.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	consultation := models.Consultation{
		ReservationID:   res.ID,
		ScheduledAt:     res.SlotStartTime,
		DurationMinutes: int(f.slotDuration / time.Minute),
		Price:           res.Price,
		AccessLink:      "https://meet.careslot.app/c/" + uuid.NewString(),
	}
	if err := tx.Create(&consultation).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent materialization; hand back the winner.
			if ferr := tx.Where("reservation_id = ?", res.ID).First(&existing).Error; ferr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &consultation, nil
}
