package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sarthakjain/careslot/controllers"
	"github.com/sarthakjain/careslot/controllers/patient"
	"github.com/sarthakjain/careslot/controllers/professional"
	"github.com/sarthakjain/careslot/middleware"
	"github.com/sarthakjain/careslot/models"
	"github.com/sarthakjain/careslot/scheduling"
)

// SetupReservationRoutes configures the booking workflow routes around the
// reservation registry
func SetupReservationRoutes(app *fiber.App, registry *scheduling.Registry, gate scheduling.PaymentGate) {
	patientHandler := patient.NewReservationHandler(registry, gate)
	professionalHandler := professional.NewReservationHandler(registry)

	reservations := app.Group("/reservations", middleware.Protected())
	reservations.Get("/", controllers.ListReservations)
	reservations.Post("/", middleware.RequireRole(models.RolePatient), patientHandler.CreateReservation)
	reservations.Delete("/:id", middleware.RequireRole(models.RolePatient), patientHandler.CancelReservation)
	reservations.Patch("/:id/payment-confirmed", middleware.RequireRole(models.RolePatient), patientHandler.PayReservation)
	reservations.Patch("/:id/decision", middleware.RequireRole(models.RoleProfessional), professionalHandler.DecideReservation)

	agenda := app.Group("/professional", middleware.Protected(), middleware.RequireRole(models.RoleProfessional, models.RoleAdmin))
	agenda.Get("/upcoming", professional.GetUpcomingConsultations)

	consultations := app.Group("/consultations", middleware.Protected())
	consultations.Get("/:id", controllers.GetConsultation)
}
