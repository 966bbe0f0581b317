package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sarthakjain/careslot/scheduling"
)

// ErrorResponse is a struct for error response
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// StatusForError maps a scheduling error to its HTTP status. Unrecognized
// errors are treated as internal.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, scheduling.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, scheduling.ErrConflict), errors.Is(err, scheduling.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, scheduling.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, scheduling.ErrValidation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// SchedulingError writes the JSON error response for a scheduling failure.
func SchedulingError(c *fiber.Ctx, message string, err error) error {
	return c.Status(StatusForError(err)).JSON(ErrorResponse{
		Message: message,
		Error:   err.Error(),
	})
}
