package db

import (
	"fmt"
	"log"

	"github.com/sarthakjain/careslot/models"
)

func Migrate() {
	// Initialize DB connection
	Init()

	// Run AutoMigrate only when explicitly called
	err := DB.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.AvailabilityWindow{},
		&models.Reservation{},
		&models.Consultation{},
	)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	// AutoMigrate cannot express a partial index, so the one-active-
	// reservation-per-slot guarantee is created by hand. A slot is occupied
	// while its reservation is pending, accepted or paid; refused and
	// cancelled rows fall out of the index and free the slot.
	err = DB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_active_slot
		ON reservations (availability_id, slot_start_time)
		WHERE status IN ('pending', 'accepted', 'paid') AND deleted_at IS NULL
	`).Error
	if err != nil {
		log.Fatal("Failed to create active-slot unique index: ", err)
	}

	seedRoles()

	fmt.Println("✅ Migrations applied successfully!")
}

func seedRoles() {
	roles := []models.Role{
		{Name: models.RolePatient, Description: "Patient who can book consultations"},
		{Name: models.RoleProfessional, Description: "Clinician who declares availability and answers reservations"},
		{Name: models.RoleAdmin, Description: "Administrator with full access"},
	}

	for _, role := range roles {
		var existing models.Role
		if DB.Where("name = ?", role.Name).First(&existing).RowsAffected == 0 {
			DB.Create(&role)
		}
	}
}
