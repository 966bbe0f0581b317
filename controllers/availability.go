package controllers

import (
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sarthakjain/careslot/db"
	"github.com/sarthakjain/careslot/models"
	"github.com/sarthakjain/careslot/redis"
	"github.com/sarthakjain/careslot/scheduling"
	"github.com/sarthakjain/careslot/utils"
)

// SlotDuration reads the global slot grid tick from the environment,
// falling back to the 45-minute default.
func SlotDuration() time.Duration {
	if v := os.Getenv("SLOT_DURATION_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			return time.Duration(minutes) * time.Minute
		}
	}
	return scheduling.DefaultSlotDuration
}

// GetProfessionalAvailability returns a professional's windows with their
// occupied and free slot times. The free list is a hint for the booking
// form, not a promise: the registry re-derives occupancy at create time.
func GetProfessionalAvailability(c *fiber.Ctx) error {
	professionalID := c.Params("id")

	var windows []models.AvailabilityWindow
	query := db.DB.Where("professional_id = ?", professionalID)
	if from := c.Query("from"); from != "" {
		if day, err := utils.ParseDay(from); err == nil {
			query = query.Where("date >= ?", day)
		}
	}
	if to := c.Query("to"); to != "" {
		if day, err := utils.ParseDay(to); err == nil {
			query = query.Where("date <= ?", day)
		}
	}
	if err := query.Order("date asc, start_time asc").Find(&windows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch availability",
			Error:   err.Error(),
		})
	}

	slotDuration := SlotDuration()
	now := time.Now().UTC()

	type windowWithSlots struct {
		models.AvailabilityWindow
		OccupiedSlots []time.Time `json:"occupied_slots"`
		FreeSlots     []time.Time `json:"free_slots"`
	}

	result := make([]windowWithSlots, 0, len(windows))
	for _, w := range windows {
		occupied, cached := redis.GetOccupiedSlots(w.ID)
		if !cached {
			var reservations []models.Reservation
			if err := db.DB.Where("availability_id = ? AND status IN ?", w.ID, models.ActiveStatuses).
				Find(&reservations).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
					Message: "Failed to fetch reservations",
					Error:   err.Error(),
				})
			}
			occupied = make([]time.Time, 0, len(reservations))
			for _, r := range reservations {
				occupied = append(occupied, r.SlotStartTime)
			}
			redis.SetOccupiedSlots(w.ID, occupied)
		}

		free, err := scheduling.SlotsForWindow(&w, occupied, now, slotDuration)
		if err != nil {
			return utils.SchedulingError(c, "Failed to derive slots", err)
		}
		result = append(result, windowWithSlots{
			AvailabilityWindow: w,
			OccupiedSlots:      occupied,
			FreeSlots:          free,
		})
	}

	return c.JSON(result)
}

// CreateAvailability declares a new window for the logged-in professional.
func CreateAvailability(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	type WindowInput struct {
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	input := new(WindowInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	window, errMsg := buildWindow(userID, input.Date, input.StartTime, input.EndTime)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errMsg,
		})
	}

	if err := db.DB.Create(window).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to create availability window",
			Error:   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(window)
}

// UpdateAvailability reshapes a window. Like deletion this is refused while
// active reservations reference the window, otherwise already-reserved
// slots could silently fall outside the new bounds.
func UpdateAvailability(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}
	id := c.Params("id")

	var window models.AvailabilityWindow
	if err := db.DB.First(&window, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Availability window not found",
		})
	}
	if window.ProfessionalID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You can only edit your own availability",
		})
	}

	if n := activeReservationCount(window.ID); n > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Window has active reservations and cannot be edited",
		})
	}

	type WindowInput struct {
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	input := new(WindowInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	if input.Date == "" {
		input.Date = window.Date.Format("2006-01-02")
	}
	if input.StartTime == "" {
		input.StartTime = window.StartTime
	}
	if input.EndTime == "" {
		input.EndTime = window.EndTime
	}

	updated, errMsg := buildWindow(userID, input.Date, input.StartTime, input.EndTime)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errMsg,
		})
	}

	window.Date = updated.Date
	window.StartTime = updated.StartTime
	window.EndTime = updated.EndTime
	if err := db.DB.Save(&window).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to update availability window",
			Error:   err.Error(),
		})
	}
	redis.InvalidateOccupiedSlots(window.ID)
	return c.JSON(window)
}

// DeleteAvailability removes a window, refused while active reservations
// reference it.
func DeleteAvailability(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}
	id := c.Params("id")

	var window models.AvailabilityWindow
	if err := db.DB.First(&window, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Availability window not found",
		})
	}
	if window.ProfessionalID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You can only delete your own availability",
		})
	}

	if n := activeReservationCount(window.ID); n > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Window has active reservations and cannot be deleted",
		})
	}

	if err := db.DB.Delete(&window).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to delete availability window",
			Error:   err.Error(),
		})
	}
	redis.InvalidateOccupiedSlots(window.ID)
	return c.SendStatus(fiber.StatusNoContent)
}

func activeReservationCount(availabilityID uint) int64 {
	var count int64
	db.DB.Model(&models.Reservation{}).
		Where("availability_id = ? AND status IN ?", availabilityID, models.ActiveStatuses).
		Count(&count)
	return count
}

// buildWindow validates the wall-clock bounds against the slot grid and
// returns the window or a user-facing validation message.
func buildWindow(professionalID uint, date, startTime, endTime string) (*models.AvailabilityWindow, string) {
	day, err := utils.ParseDay(date)
	if err != nil {
		return nil, err.Error()
	}

	slotDuration := SlotDuration()
	startMinutes, err := utils.ParseClock(startTime)
	if err != nil {
		return nil, err.Error()
	}
	endMinutes, err := utils.ParseClock(endTime)
	if err != nil {
		return nil, err.Error()
	}
	if startMinutes >= endMinutes {
		return nil, "start_time must be before end_time"
	}
	for _, clock := range []string{startTime, endTime} {
		aligned, err := utils.AlignedToGrid(clock, slotDuration)
		if err != nil {
			return nil, err.Error()
		}
		if !aligned {
			return nil, "window bounds must align to the slot grid"
		}
	}

	return &models.AvailabilityWindow{
		ProfessionalID: professionalID,
		Date:           day,
		StartTime:      startTime,
		EndTime:        endTime,
	}, ""
}
