package patient

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sarthakjain/careslot/db"
	"github.com/sarthakjain/careslot/models"
	"github.com/sarthakjain/careslot/redis"
	"github.com/sarthakjain/careslot/scheduling"
	"github.com/sarthakjain/careslot/utils"
)

// ReservationHandler carries the patient-side booking flow: request a slot,
// withdraw a pending request, settle an accepted one.
type ReservationHandler struct {
	registry *scheduling.Registry
	gate     scheduling.PaymentGate
}

func NewReservationHandler(registry *scheduling.Registry, gate scheduling.PaymentGate) *ReservationHandler {
	return &ReservationHandler{registry: registry, gate: gate}
}

// CreateReservation books one slot of an availability window for the
// logged-in patient. On 409 the client should re-fetch the slot list and
// offer another slot, not retry this one.
func (h *ReservationHandler) CreateReservation(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	type ReservationInput struct {
		AvailabilityID uint      `json:"availability_id"`
		SlotStartTime  time.Time `json:"slot_start_time"`
	}
	input := new(ReservationInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	if input.AvailabilityID == 0 || input.SlotStartTime.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "availability_id and slot_start_time are required",
		})
	}

	reservation, err := h.registry.Create(c.Context(), userID, input.AvailabilityID, input.SlotStartTime.UTC())
	if err != nil {
		return utils.SchedulingError(c, "Failed to create reservation", err)
	}
	redis.InvalidateOccupiedSlots(reservation.AvailabilityID)

	notifyReservationRequested(reservation)

	return c.Status(fiber.StatusCreated).JSON(reservation)
}

// CancelReservation withdraws a PENDING reservation of the logged-in patient.
func (h *ReservationHandler) CancelReservation(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid reservation ID",
		})
	}

	reservation, err := h.registry.Cancel(c.Context(), uint(id), userID)
	if err != nil {
		return utils.SchedulingError(c, "Failed to cancel reservation", err)
	}
	redis.InvalidateOccupiedSlots(reservation.AvailabilityID)

	var professional models.User
	if err := db.DB.First(&professional, reservation.ProfessionalID).Error; err == nil {
		body := fmt.Sprintf(`
			<p>Dear %s,</p>
			<p>The reservation for %s has been cancelled by the patient.</p>
			<p>The slot is available for booking again.</p>
		`, professional.Name, reservation.SlotStartTime.Format("2006-01-02 15:04"))
		if err := utils.SendEmail(professional.Email, "Reservation Cancelled", body); err != nil {
			utils.GetLogger().Warn("failed to send cancellation email: " + err.Error())
		}
	}

	return c.JSON(reservation)
}

// PayReservation charges the patient for an ACCEPTED reservation through
// the payment gate, then records the outcome. Billing is all-or-nothing:
// if the charge fails the reservation stays ACCEPTED.
func (h *ReservationHandler) PayReservation(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}
	id := c.Params("id")

	var reservation models.Reservation
	if err := db.DB.First(&reservation, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Reservation not found",
		})
	}
	if reservation.PatientID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You can only pay for your own reservations",
		})
	}
	if reservation.Status != models.StatusAccepted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": fmt.Sprintf("Reservation is %s, only accepted reservations can be paid", reservation.Status),
		})
	}

	paymentRef, err := h.gate.Charge(c.Context(), &reservation)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(utils.ErrorResponse{
			Message: "Payment failed",
			Error:   err.Error(),
		})
	}

	updated, consultation, err := h.registry.ConfirmPayment(c.Context(), reservation.ID, paymentRef)
	if err != nil {
		return utils.SchedulingError(c, "Failed to confirm payment", err)
	}

	return c.JSON(fiber.Map{
		"reservation":  updated,
		"consultation": consultation,
	})
}

func notifyReservationRequested(reservation *models.Reservation) {
	var patient, professional models.User
	if err := db.DB.First(&patient, reservation.PatientID).Error; err != nil {
		return
	}
	if err := db.DB.First(&professional, reservation.ProfessionalID).Error; err != nil {
		return
	}

	slot := reservation.SlotStartTime.Format("2006-01-02 15:04")
	patientBody := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your reservation request has been sent.</p>
		<ul>
			<li><strong>Professional:</strong> %s</li>
			<li><strong>Slot:</strong> %s</li>
			<li><strong>Price:</strong> %.2f</li>
		</ul>
		<p>You will be notified once the professional answers.</p>
	`, patient.Name, professional.Name, slot, reservation.Price)
	if err := utils.SendEmail(patient.Email, "Reservation Requested", patientBody); err != nil {
		utils.GetLogger().Warn("failed to send reservation email: " + err.Error())
	}

	professionalBody := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You have a new reservation request.</p>
		<ul>
			<li><strong>Patient:</strong> %s</li>
			<li><strong>Slot:</strong> %s</li>
		</ul>
		<p>Please accept or refuse it from your dashboard.</p>
	`, professional.Name, patient.Name, slot)
	if err := utils.SendEmail(professional.Email, "New Reservation Request", professionalBody); err != nil {
		utils.GetLogger().Warn("failed to send reservation email: " + err.Error())
	}
}
