package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/sarthakjain/careslot/controllers"
	"github.com/sarthakjain/careslot/cron"
	"github.com/sarthakjain/careslot/db"
	"github.com/sarthakjain/careslot/redis"
	"github.com/sarthakjain/careslot/routes"
	"github.com/sarthakjain/careslot/scheduling"
	"github.com/sarthakjain/careslot/utils"
)

func main() {
	app := fiber.New()
	if os.Getenv("RUN_MIGRATIONS") == "true" {
		db.Migrate()
	} else {
		db.Init()
	}
	redis.InitRedis()
	logger := utils.GetLogger()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	registry := scheduling.NewRegistry(db.DB, logger, controllers.SlotDuration())
	gate := scheduling.NewStripeGate(os.Getenv("STRIPE_SECRET_KEY"), logger)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("careslot booking API")
	})
	routes.SetupAuthRoutes(app)
	routes.SetupAvailabilityRoutes(app)
	routes.SetupReservationRoutes(app, registry, gate)

	cron.StartCronJobs(registry)

	if err := app.Listen(":8000"); err != nil {
		log.Fatal(err)
	}
}
