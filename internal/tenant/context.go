package tenant

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	teamKey = "team"
	userKey = "current_user"
)

var ErrNoTeam = errors.New("no team in context")

// SetTeam stores the resolved team for downstream handlers.
func SetTeam(c *fiber.Ctx, team *models.Team) {
	c.Locals(teamKey, team)
}

// GetTeam returns the team resolved by middleware.TeamRequired.
func GetTeam(c *fiber.Ctx) (*models.Team, error) {
	team, ok := c.Locals(teamKey).(*models.Team)
	if !ok || team == nil {
		return nil, ErrNoTeam
	}
	return team, nil
}

// GetTeamID extracts the team UUID from Fiber context locals.
func GetTeamID(c *fiber.Ctx) uuid.UUID {
	if team, err := GetTeam(c); err == nil {
		return team.ID
	}
	return uuid.Nil
}

// SetUser stores the user that authenticated the request. API key requests
// have no user.
func SetUser(c *fiber.Ctx, user *models.User) {
	c.Locals(userKey, user)
}

func GetUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// RequestedBy names who submitted a job: the user's email, or "api_key".
func RequestedBy(c *fiber.Ctx) string {
	if user := GetUser(c); user != nil {
		return user.Email
	}
	return "api_key"
}
