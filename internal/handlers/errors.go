package handlers

import (
	"errors"

	"nutriregistry/internal/errs"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps a registry failure onto an HTTP status.
func respondError(c *fiber.Ctx, log *zap.Logger, message string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, errs.ErrInvalidArgument):
		status = fiber.StatusBadRequest
	case errors.Is(err, errs.ErrPreconditionFailed):
		status = fiber.StatusPreconditionFailed
	case errors.Is(err, errs.ErrLockTimeout):
		status = fiber.StatusServiceUnavailable
	default:
		log.Error(message, zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

func ok(c *fiber.Ctx, done bool) error {
	return c.JSON(fiber.Map{"ok": done})
}
