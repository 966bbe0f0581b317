package patient

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sarthakjain/careslot/db"
	"github.com/sarthakjain/careslot/models"
)

// GetAllProfessionals returns all clinicians patients can book with
func GetAllProfessionals(c *fiber.Ctx) error {
	var professionals []models.User

	// Get pagination parameters
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	// Calculate offset
	offset := (page - 1) * limit

	// Only return users with the professional role
	if err := db.DB.Preload("Role").
		Joins("JOIN roles ON users.role_id = roles.id").
		Where("roles.name = ?", models.RoleProfessional).
		Limit(limit).
		Offset(offset).
		Find(&professionals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch professionals",
		})
	}

	// Count total records for pagination
	var count int64
	db.DB.Model(&models.User{}).
		Joins("JOIN roles ON users.role_id = roles.id").
		Where("roles.name = ?", models.RoleProfessional).
		Count(&count)

	for i := range professionals {
		professionals[i].Password = ""
	}

	return c.JSON(fiber.Map{
		"professionals": professionals,
		"total":         count,
		"page":          page,
		"limit":         limit,
		"pages":         (int(count) + limit - 1) / limit,
	})
}

// GetProfessionalDetails returns details for a specific professional
func GetProfessionalDetails(c *fiber.Ctx) error {
	id := c.Params("id")

	var professional models.User
	if err := db.DB.Preload("Role").
		Preload("Availability").
		First(&professional, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Professional not found",
		})
	}

	if professional.Role.Name != models.RoleProfessional {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User is not a professional",
		})
	}

	// Remove sensitive information
	professional.Password = ""

	return c.JSON(professional)
}
