package middleware

import (
	"lms/models"

	"github.com/gofiber/fiber/v2"
)

// RequireRole returns a middleware that checks if the authenticated user has
// one of the required roles. Must run after JWTMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Unauthorized: role not found",
				"data":    nil,
			})
		}

		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "You do not have permission to access this resource!",
			"data":    nil,
		})
	}
}

// RequireStudent restricts a route to students.
func RequireStudent() fiber.Handler {
	return RequireRole(models.RoleStudent)
}

// RequireInstructor restricts a route to instructors.
func RequireInstructor() fiber.Handler {
	return RequireRole(models.RoleInstructor)
}
