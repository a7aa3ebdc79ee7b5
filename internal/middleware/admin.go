package middleware

import (
	"crypto/subtle"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

// SuperuserRequired admits operators holding the internal token, or a
// logged-in superuser. It must run after OptionalJWT.
func SuperuserRequired(cfg *config.Config, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.InternalToken != "" {
			got := c.Get("X-Internal-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(cfg.InternalToken)) == 1 {
				return c.Next()
			}
		}

		if err := loadUser(c, users); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if !tenant.GetUser(c).IsSuperuser {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}
		return c.Next()
	}
}
