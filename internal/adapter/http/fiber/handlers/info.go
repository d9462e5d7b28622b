package handlers

import "github.com/gofiber/fiber/v2"

// Info answers GET / with the service identity.
func Info(name, version string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"ok":      true,
			"system":  name,
			"version": version,
			"status":  "active",
			"ui":      "/ui",
			"api":     "/api/customers",
		})
	}
}
