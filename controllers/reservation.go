package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sarthakjain/careslot/db"
	"github.com/sarthakjain/careslot/models"
	"github.com/sarthakjain/careslot/utils"
)

// ListReservations returns the logged-in actor's reservations for the
// dashboard, from either side of the table depending on role.
func ListReservations(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	role := c.Query("role", "patient")
	var column string
	switch role {
	case "patient":
		column = "patient_id"
	case "professional":
		column = "professional_id"
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "role must be patient or professional",
		})
	}

	query := db.DB.Preload("Availability").Preload("Patient").Preload("Professional").
		Where(column+" = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var reservations []models.Reservation
	if err := query.Order("slot_start_time asc").Find(&reservations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch reservations",
			Error:   err.Error(),
		})
	}

	for i := range reservations {
		reservations[i].Patient.Password = ""
		reservations[i].Professional.Password = ""
	}

	return c.JSON(fiber.Map{
		"reservations": reservations,
		"count":        len(reservations),
	})
}

// GetConsultation returns a confirmed consultation to either party.
func GetConsultation(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}
	id := c.Params("id")

	var consultation models.Consultation
	if err := db.DB.Preload("Reservation").First(&consultation, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Consultation not found",
		})
	}

	if consultation.Reservation.PatientID != userID && consultation.Reservation.ProfessionalID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a party to this consultation",
		})
	}

	return c.JSON(consultation)
}
