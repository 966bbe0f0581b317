package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sarthakjain/careslot/controllers"
	"github.com/sarthakjain/careslot/controllers/patient"
	"github.com/sarthakjain/careslot/middleware"
	"github.com/sarthakjain/careslot/models"
)

// SetupAvailabilityRoutes configures availability window and professional
// directory routes
func SetupAvailabilityRoutes(app *fiber.App) {
	professionals := app.Group("/professionals")
	professionals.Get("/", patient.GetAllProfessionals)
	professionals.Get("/:id", patient.GetProfessionalDetails)
	professionals.Get("/:id/availability", controllers.GetProfessionalAvailability)

	availability := app.Group("/availability", middleware.Protected(), middleware.RequireRole(models.RoleProfessional, models.RoleAdmin))
	availability.Post("/", controllers.CreateAvailability)
	availability.Patch("/:id", controllers.UpdateAvailability)
	availability.Delete("/:id", controllers.DeleteAvailability)
}
