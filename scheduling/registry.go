package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/sarthakjain/careslot/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Outcome string

const (
	OutcomeAccept Outcome = "accept"
	OutcomeRefuse Outcome = "refuse"
)

// Registry is the sole writer of reservation state. Every operation runs as
// a single transaction covering the precondition check and the state write,
// so a failed booking never leaves a partially-created reservation. The
// one-active-reservation-per-slot invariant is enforced by the durable store
// itself (partial unique index, see db.Migrate); the row locks here only
// keep the error messages deterministic under contention.
type Registry struct {
	db           *gorm.DB
	logger       *zap.Logger
	slotDuration time.Duration
	factory      *ConsultationFactory
}

func NewRegistry(db *gorm.DB, logger *zap.Logger, slotDuration time.Duration) *Registry {
	if slotDuration <= 0 {
		slotDuration = DefaultSlotDuration
	}
	return &Registry{
		db:           db,
		logger:       logger,
		slotDuration: slotDuration,
		factory:      NewConsultationFactory(slotDuration),
	}
}

// SlotDuration returns the grid tick the registry validates against.
func (r *Registry) SlotDuration() time.Duration {
	return r.slotDuration
}

// Create validates slotStart against the named window's current occupancy
// and atomically inserts a PENDING reservation for the patient. Any
// client-held slot list is a hint only; the occupied set is re-derived here
// inside the transaction.
func (r *Registry) Create(ctx context.Context, patientID, availabilityID uint, slotStart time.Time) (*models.Reservation, error) {
	var reservation models.Reservation

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the window row so concurrent creates for the same window
		// serialize on the occupancy check.
		var window models.AvailabilityWindow
		if err := tx.Raw(`
			SELECT *
			FROM availability_windows
			WHERE id = ? AND deleted_at IS NULL
			FOR UPDATE
		`, availabilityID).Scan(&window).Error; err != nil {
			return err
		}
		if window.ID == 0 {
			return fmt.Errorf("%w: availability window %d", ErrNotFound, availabilityID)
		}

		windowStart, err := window.WindowStart()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		windowEnd, err := window.WindowEnd()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}

		if !slotOnGrid(windowStart, windowEnd, slotStart, r.slotDuration) {
			return fmt.Errorf("%w: %s is not a slot of window %d", ErrNotFound,
				slotStart.Format(time.RFC3339), availabilityID)
		}

		occupied, err := occupiedSlots(tx, availabilityID)
		if err != nil {
			return err
		}
		for _, o := range occupied {
			if o.Equal(slotStart) {
				return fmt.Errorf("%w: %s", ErrConflict, slotStart.Format(time.RFC3339))
			}
		}
		if !slotStart.After(time.Now().UTC()) {
			return fmt.Errorf("%w: slot %s has already elapsed", ErrValidation, slotStart.Format(time.RFC3339))
		}

		var professional models.User
		if err := tx.First(&professional, window.ProfessionalID).Error; err != nil {
			return fmt.Errorf("%w: professional %d", ErrNotFound, window.ProfessionalID)
		}

		reservation = models.Reservation{
			AvailabilityID: availabilityID,
			PatientID:      patientID,
			ProfessionalID: window.ProfessionalID,
			SlotStartTime:  slotStart,
			Status:         models.StatusPending,
			Price:          professional.ConsultationRate,
		}
		if err := tx.Create(&reservation).Error; err != nil {
			if isUniqueViolation(err) {
				// Another create committed first; the index is the system of record.
				return fmt.Errorf("%w: %s", ErrConflict, slotStart.Format(time.RFC3339))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("reservation created",
		zap.Uint("reservation_id", reservation.ID),
		zap.Uint("availability_id", availabilityID),
		zap.Uint("patient_id", patientID),
		zap.Time("slot_start", slotStart))
	return &reservation, nil
}

// Decide records the owning professional's accept/refuse decision on a
// PENDING reservation. Accepting also materializes the consultation in the
// same transaction.
func (r *Registry) Decide(ctx context.Context, reservationID, professionalID uint, outcome Outcome) (*models.Reservation, *models.Consultation, error) {
	var target models.ReservationStatus
	switch outcome {
	case OutcomeAccept:
		target = models.StatusAccepted
	case OutcomeRefuse:
		target = models.StatusRefused
	default:
		return nil, nil, fmt.Errorf("%w: unknown outcome %q", ErrValidation, outcome)
	}

	var (
		reservation  models.Reservation
		consultation *models.Consultation
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockReservation(tx, reservationID, &reservation); err != nil {
			return err
		}
		if reservation.ProfessionalID != professionalID {
			return fmt.Errorf("%w: reservation %d belongs to another professional", ErrForbidden, reservationID)
		}
		if err := transition(tx, &reservation, target); err != nil {
			return err
		}
		if target == models.StatusAccepted {
			c, err := r.factory.Materialize(tx, &reservation)
			if err != nil {
				return err
			}
			consultation = c
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	r.logger.Info("reservation decided",
		zap.Uint("reservation_id", reservationID),
		zap.String("outcome", string(outcome)))
	return &reservation, consultation, nil
}

// ConfirmPayment moves an ACCEPTED reservation to PAID. Invoked after the
// payment gate reports a successful charge; paymentRef is the gate's charge
// identifier.
func (r *Registry) ConfirmPayment(ctx context.Context, reservationID uint, paymentRef string) (*models.Reservation, *models.Consultation, error) {
	var (
		reservation  models.Reservation
		consultation *models.Consultation
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockReservation(tx, reservationID, &reservation); err != nil {
			return err
		}
		if err := transition(tx, &reservation, models.StatusPaid); err != nil {
			return err
		}
		if paymentRef != "" {
			if err := tx.Model(&models.Reservation{}).Where("id = ?", reservation.ID).
				Update("payment_ref", paymentRef).Error; err != nil {
				return err
			}
			reservation.PaymentRef = paymentRef
		}
		// The consultation exists since acceptance; Materialize just hands
		// back the existing record.
		c, err := r.factory.Materialize(tx, &reservation)
		if err != nil {
			return err
		}
		consultation = c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	r.logger.Info("payment confirmed",
		zap.Uint("reservation_id", reservationID),
		zap.String("payment_ref", paymentRef))
	return &reservation, consultation, nil
}

// Cancel lets the owning patient withdraw a reservation while it is still
// PENDING. Once the professional has acted the patient can no longer
// unilaterally cancel through this path.
func (r *Registry) Cancel(ctx context.Context, reservationID, patientID uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockReservation(tx, reservationID, &reservation); err != nil {
			return err
		}
		if reservation.PatientID != patientID {
			return fmt.Errorf("%w: reservation %d belongs to another patient", ErrForbidden, reservationID)
		}
		return transition(tx, &reservation, models.StatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("reservation cancelled", zap.Uint("reservation_id", reservationID))
	return &reservation, nil
}

// AutoRefuseStale refuses PENDING reservations the professional never
// answered within ttl. Policy extension: the booking flow itself never
// expires reservations, this runs from the cron scheduler.
func (r *Registry) AutoRefuseStale(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	res := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("status = ? AND requested_at < ?", models.StatusPending, cutoff).
		Update("status", models.StatusRefused)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		r.logger.Info("stale pending reservations refused",
			zap.Int64("count", res.RowsAffected),
			zap.Time("cutoff", cutoff))
	}
	return res.RowsAffected, nil
}

// OccupiedSlots returns the slot start times currently held by an active
// reservation of the window.
func (r *Registry) OccupiedSlots(ctx context.Context, availabilityID uint) ([]time.Time, error) {
	return occupiedSlots(r.db.WithContext(ctx), availabilityID)
}

func occupiedSlots(tx *gorm.DB, availabilityID uint) ([]time.Time, error) {
	var reservations []models.Reservation
	if err := tx.Where("availability_id = ? AND status IN ?", availabilityID, models.ActiveStatuses).
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	occupied := make([]time.Time, 0, len(reservations))
	for _, res := range reservations {
		occupied = append(occupied, res.SlotStartTime)
	}
	return occupied, nil
}

// lockReservation loads the reservation row under FOR UPDATE so the status
// check and the write happen against the same snapshot.
func lockReservation(tx *gorm.DB, id uint, out *models.Reservation) error {
	if err := tx.Raw(`
		SELECT *
		FROM reservations
		WHERE id = ? AND deleted_at IS NULL
		FOR UPDATE
	`, id).Scan(out).Error; err != nil {
		return err
	}
	if out.ID == 0 {
		return fmt.Errorf("%w: reservation %d", ErrNotFound, id)
	}
	return nil
}

// transition applies the lifecycle table and persists the new status.
// Illegal moves, including any move out of a terminal status, fail without
// side effects.
func transition(tx *gorm.DB, res *models.Reservation, next models.ReservationStatus) error {
	if !res.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, next)
	}
	if err := tx.Model(&models.Reservation{}).Where("id = ?", res.ID).
		Update("status", next).Error; err != nil {
		return err
	}
	res.Status = next
	return nil
}
