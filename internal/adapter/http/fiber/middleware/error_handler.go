package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/solutiontech/gic/pkg/apperrors"
)

// ErrorHandler renders every error returned by a handler as
// {"ok": false, "error", "kind", "field"} with the status of its kind.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusOf(err)
		body := fiber.Map{
			"ok":    false,
			"error": err.Error(),
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			body["kind"] = "http"
		} else {
			body["kind"] = apperrors.KindOf(err)
			if field := apperrors.FieldOf(err); field != "" {
				body["field"] = field
			}
		}

		switch {
		case code >= fiber.StatusInternalServerError:
			log.Error("Request failed",
				zap.Int("status", code),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			if code == fiber.StatusInternalServerError {
				body["error"] = "internal server error"
			}
		case code >= fiber.StatusBadRequest:
			log.Debug("Request rejected",
				zap.Int("status", code),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(body)
	}
}

// StatusOf is the HTTP status an error is answered with.
func StatusOf(err error) int {
	if err == nil {
		return fiber.StatusOK
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return apperrors.HTTPStatus(err)
}
