package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// APIKeyHeader carries the shared API key.
const APIKeyHeader = "X-API-Key"

// APIKeyRequired guards a route group with a shared key. A missing header is
// 401 and a wrong key 403. An empty key disables the check.
func APIKeyRequired(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}

		got := c.Get(APIKeyHeader)
		if got == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false, "error": "missing API key", "kind": "unauthorized"})
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"ok": false, "error": "invalid API key", "kind": "forbidden"})
		}
		return c.Next()
	}
}
