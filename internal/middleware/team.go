package middleware

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	HeaderTeamID = "X-TEAM-ID"
	HeaderAPIKey = "X-API-Key"
)

// UserLoader loads the account behind a verified access token.
type UserLoader interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// TeamResolver finds the team a request acts on.
type TeamResolver interface {
	ResolveForUser(ctx context.Context, userID uuid.UUID, teamID *uuid.UUID) (*models.Team, error)
	ResolveAPIKey(ctx context.Context, key string) (*models.Team, error)
}

// UserRequired loads the user of the bearer token. It must run after
// JWTProtected or OptionalJWT.
func UserRequired(users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := loadUser(c, users); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		return c.Next()
	}
}

// TeamRequired resolves the team for the request. A bearer token selects the
// team named by X-TEAM-ID among the user's memberships, or the user's first
// team. Without a token the X-API-Key header must name a team API key.
func TeamRequired(users UserLoader, teams TeamResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if _, err := tenant.GetUserID(c); err == nil {
			if err := loadUser(c, users); err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error: true, Message: "Unauthorized",
				})
			}

			var requested *uuid.UUID
			if raw := c.Get(HeaderTeamID); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
						Error: true, Message: "Invalid " + HeaderTeamID + " header",
					})
				}
				requested = &id
			}

			team, err := teams.ResolveForUser(ctx, tenant.GetUser(c).ID, requested)
			if err != nil {
				slog.Error("team resolution failed", "user_id", tenant.GetUser(c).ID.String(), "error", err)
				return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
					Error: true, Message: "Failed to resolve team",
				})
			}
			tenant.SetTeam(c, team)
			return c.Next()
		}

		key := c.Get(HeaderAPIKey)
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Authentication credentials were not provided",
			})
		}
		team, err := teams.ResolveAPIKey(ctx, key)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid API key",
			})
		}
		tenant.SetTeam(c, team)
		return c.Next()
	}
}

func loadUser(c *fiber.Ctx, users UserLoader) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return err
	}
	user, err := users.GetUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	tenant.SetUser(c, user)
	return nil
}
