package professional

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

// ReservationHandler carries the clinician-side workflow: answer pending
// reservation requests and review the agenda.
type ReservationHandler struct {
	registry *scheduling.Registry
}

func NewReservationHandler(registry *scheduling.Registry) *ReservationHandler {
	return &ReservationHandler{registry: registry}
}

// DecideReservation records the professional's accept/refuse answer on a
// pending reservation. Accepting returns the materialized consultation.
func (h *ReservationHandler) DecideReservation(c *fiber.Ctx) error {
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

	type DecisionInput struct {
		Outcome string `json:"outcome"`
	}
	input := new(DecisionInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	reservation, consultation, err := h.registry.Decide(
		c.Context(), uint(id), userID, scheduling.Outcome(input.Outcome))
	if err != nil {
		return utils.SchedulingError(c, "Failed to decide reservation", err)
	}
	redis.InvalidateOccupiedSlots(reservation.AvailabilityID)

	notifyDecision(reservation, consultation)

	return c.JSON(fiber.Map{
		"reservation":  reservation,
		"consultation": consultation,
	})
}

// GetUpcomingConsultations returns the professional's agenda of active
// reservations in a date range.
func GetUpcomingConsultations(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	limit := 10
	if c.Query("limit") != "" {
		if parsedLimit := c.QueryInt("limit"); parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	now := time.Now()
	startDate := now
	endDate := now.AddDate(0, 0, 30)

	dateFilter := c.Query("filter", "month")
	switch dateFilter {
	case "today":
		startDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		endDate = time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	case "tomorrow":
		tomorrow := now.AddDate(0, 0, 1)
		startDate = time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, now.Location())
		endDate = time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 23, 59, 59, 0, now.Location())
	case "week":
		startDate = now
		endDate = now.AddDate(0, 0, 7)
	case "month":
		startDate = now
		endDate = now.AddDate(0, 1, 0)
	}

	var reservations []models.Reservation
	query := db.DB.
		Preload("Availability").
		Preload("Patient").
		Where("professional_id = ?", userID).
		Where("slot_start_time >= ?", startDate).
		Where("slot_start_time <= ?", endDate).
		Where("status IN ?", models.ActiveStatuses).
		Order("slot_start_time asc").
		Limit(limit)

	if err := query.Find(&reservations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	for i := range reservations {
		reservations[i].Patient.Password = ""
	}

	return c.JSON(fiber.Map{
		"reservations": reservations,
		"count":        len(reservations),
		"filter":       dateFilter,
		"start_date":   startDate.Format("2006-01-02"),
		"end_date":     endDate.Format("2006-01-02"),
	})
}

func notifyDecision(reservation *models.Reservation, consultation *models.Consultation) {
	var patient models.User
	if err := db.DB.First(&patient, reservation.PatientID).Error; err != nil {
		return
	}

	slot := reservation.SlotStartTime.Format("2006-01-02 15:04")
	var subject, body string
	if reservation.Status == models.StatusAccepted && consultation != nil {
		subject = "Reservation Accepted"
		body = fmt.Sprintf(`
			<p>Dear %s,</p>
			<p>Your reservation for %s has been accepted.</p>
			<ul>
				<li><strong>Price:</strong> %.2f</li>
				<li><strong>Access link:</strong> %s</li>
			</ul>
			<p>Please proceed to payment to confirm the consultation.</p>
		`, patient.Name, slot, consultation.Price, consultation.AccessLink)
	} else {
		subject = "Reservation Refused"
		body = fmt.Sprintf(`
			<p>Dear %s,</p>
			<p>Unfortunately your reservation for %s has been refused.</p>
			<p>Please pick another slot from the professional's availability.</p>
		`, patient.Name, slot)
	}

	if err := utils.SendEmail(patient.Email, subject, body); err != nil {
		utils.GetLogger().Warn("failed to send decision email: " + err.Error())
	}
}
