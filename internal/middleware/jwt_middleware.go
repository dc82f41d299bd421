package middleware

import (
	"strings"

	"nutriregistry/internal/models"
	"nutriregistry/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const callerKey = "caller"

// CallerRequired is a Fiber middleware that verifies the bearer token and
// stores the caller identity it carries for the handlers.
func CallerRequired(identities *services.IdentityService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		identity, err := identities.ValidateToken(parts[1])
		if err != nil {
			log.Debug("token validation failed", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(callerKey, identity)
		return c.Next()
	}
}

// Caller returns the identity stored by CallerRequired.
func Caller(c *fiber.Ctx) models.Identity {
	identity, _ := c.Locals(callerKey).(models.Identity)
	return identity
}
