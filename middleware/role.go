package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// RequireRole gates a route on the actor's role claim. Ownership of the
// individual resource is still checked inside the registry operation, so
// this only keeps patients off professional routes and vice versa.
func RequireRole(roleNames ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User role not found in context",
			})
		}

		for _, name := range roleNames {
			if role == name {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to perform this action",
		})
	}
}
