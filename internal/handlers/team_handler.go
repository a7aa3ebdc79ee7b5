package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TeamHandler struct {
	teamService *services.TeamService
}

func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

func teamResponse(t *models.Team) dto.TeamResponse {
	return dto.TeamResponse{UUID: t.ID, Name: t.Name, IsDefault: t.IsDefault}
}

func (h *TeamHandler) List(c *fiber.Ctx) error {
	teams, err := h.teamService.List(c.UserContext(), tenant.GetUser(c).ID)
	if err != nil {
		return internalError(c, "list_teams", err)
	}
	out := make([]dto.TeamResponse, len(teams))
	for i := range teams {
		out[i] = teamResponse(&teams[i])
	}
	return c.JSON(out)
}

func (h *TeamHandler) Create(c *fiber.Ctx) error {
	var req dto.TeamRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	team, err := h.teamService.Create(c.UserContext(), tenant.GetUser(c).ID, req.Name)
	if err != nil {
		return internalError(c, "create_team", err)
	}
	return c.Status(fiber.StatusCreated).JSON(teamResponse(team))
}

func (h *TeamHandler) Get(c *fiber.Ctx) error {
	teamID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Team not found")
	}
	team, err := h.teamService.Get(c.UserContext(), tenant.GetUser(c).ID, teamID)
	if err != nil {
		return notFound(c, "Team not found")
	}
	return c.JSON(teamResponse(team))
}

func (h *TeamHandler) Current(c *fiber.Ctx) error {
	team, err := tenant.GetTeam(c)
	if err != nil {
		return notFound(c, "Team not found")
	}
	return c.JSON(teamResponse(team))
}

func (h *TeamHandler) Rename(c *fiber.Ctx) error {
	var req dto.TeamRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}
	team, err := tenant.GetTeam(c)
	if err != nil {
		return notFound(c, "Team not found")
	}

	team, err = h.teamService.Rename(c.UserContext(), team, req.Name)
	if err != nil {
		return internalError(c, "rename_team", err)
	}
	return c.JSON(teamResponse(team))
}

func (h *TeamHandler) Invite(c *fiber.Ctx) error {
	var req dto.InvitationRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	if err := h.teamService.Invite(c.UserContext(), tenant.GetTeamID(c), req.Email); err != nil {
		if errors.Is(err, services.ErrAlreadyMember) {
			return badRequest(c, err.Error())
		}
		return internalError(c, "invite", err)
	}
	return c.JSON(fiber.Map{"message": "Invitation sent"})
}

func (h *TeamHandler) ListInvitations(c *fiber.Ctx) error {
	invs, err := h.teamService.ListInvitations(c.UserContext(), tenant.GetTeamID(c))
	if err != nil {
		return internalError(c, "list_invitations", err)
	}
	return c.JSON(invitationResponses(invs))
}

func (h *TeamHandler) MyInvitations(c *fiber.Ctx) error {
	invs, err := h.teamService.MyInvitations(c.UserContext(), tenant.GetUser(c).Email)
	if err != nil {
		return internalError(c, "my_invitations", err)
	}
	return c.JSON(invitationResponses(invs))
}

func (h *TeamHandler) AcceptInvitation(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Invitation not found")
	}
	if err := h.teamService.AcceptInvitation(c.UserContext(), tenant.GetUser(c), id); err != nil {
		if errors.Is(err, services.ErrInvitationNotFound) {
			return notFound(c, "Invitation not found")
		}
		return internalError(c, "accept_invitation", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func invitationResponses(invs []models.TeamInvitation) []dto.InvitationResponse {
	out := make([]dto.InvitationResponse, len(invs))
	for i, inv := range invs {
		out[i] = dto.InvitationResponse{UUID: inv.ID, Email: inv.Email, CreatedAt: inv.CreatedAt}
	}
	return out
}

func (h *TeamHandler) ListMembers(c *fiber.Ctx) error {
	members, err := h.teamService.ListMembers(c.UserContext(), tenant.GetTeamID(c))
	if err != nil {
		return internalError(c, "list_members", err)
	}
	return c.JSON(members)
}

func (h *TeamHandler) RemoveMember(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Member not found")
	}
	if err := h.teamService.RemoveMember(c.UserContext(), tenant.GetTeamID(c), id); err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			return notFound(c, "Member not found")
		case errors.Is(err, services.ErrOwnerProtected):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "You can not delete the owner of the team",
			})
		}
		return internalError(c, "remove_member", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *TeamHandler) ListAPIKeys(c *fiber.Ctx) error {
	keys, err := h.teamService.ListAPIKeys(c.UserContext(), tenant.GetTeamID(c))
	if err != nil {
		return internalError(c, "list_api_keys", err)
	}
	return c.JSON(keys)
}

func (h *TeamHandler) CreateAPIKey(c *fiber.Ctx) error {
	var req dto.APIKeyRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	key, err := h.teamService.CreateAPIKey(c.UserContext(), tenant.GetTeamID(c), req.Name)
	if err != nil {
		return internalError(c, "create_api_key", err)
	}
	return c.Status(fiber.StatusCreated).JSON(key)
}

func (h *TeamHandler) DeleteAPIKey(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "API key not found")
	}
	if err := h.teamService.DeleteAPIKey(c.UserContext(), tenant.GetTeamID(c), id); err != nil {
		if errors.Is(err, services.ErrAPIKeyNotFound) {
			return notFound(c, "API key not found")
		}
		return internalError(c, "delete_api_key", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
