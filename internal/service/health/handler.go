package health

import "github.com/gofiber/fiber/v2"

// Mount exposes liveness and readiness on r, plus the /healthz and /readyz
// aliases probes usually expect.
func (s *Service) Mount(r fiber.Router) {
	live := func(c *fiber.Ctx) error {
		return c.JSON(s.Live())
	}
	ready := func(c *fiber.Ctx) error {
		rep := s.Ready(c.UserContext())
		if !rep.Ready {
			c.Status(fiber.StatusServiceUnavailable)
		}
		return c.JSON(rep)
	}

	r.Get("/health", live)
	r.Get("/health/live", live)
	r.Get("/healthz", live)
	r.Get("/health/ready", ready)
	r.Get("/readyz", ready)
}
