package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Install(c *fiber.Ctx) error {
	var req dto.InstallRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	if err := h.authService.Install(c.UserContext(), &req); err != nil {
		if errors.Is(err, services.ErrAlreadyInstalled) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Already installed",
			})
		}
		return internalError(c, "install", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSignupDisabled):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrEmailTaken):
			return badRequest(c, err.Error())
		}
		return internalError(c, "register", err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrLoginDisabled), errors.Is(err, services.ErrEmailNotVerified):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return internalError(c, "login", err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	resp, err := h.authService.Refresh(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return internalError(c, "refresh", err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	if err := h.authService.Logout(c.UserContext(), &req); err != nil {
		return internalError(c, "logout", err)
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) VerifyToken(c *fiber.Ctx) error {
	var req dto.VerifyTokenRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	if err := h.authService.VerifyToken(req.Token); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Token is invalid or expired",
		})
	}
	return c.JSON(fiber.Map{})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	if err := h.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return internalError(c, "forgot_password", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) ValidateResetToken(c *fiber.Ctx) error {
	if err := h.authService.ValidateResetToken(c.UserContext(), c.Params("token")); err != nil {
		return badRequest(c, "Invalid token")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	if err := h.authService.ResetPassword(c.UserContext(), c.Params("token"), req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidResetToken) {
			return badRequest(c, "Invalid token")
		}
		return internalError(c, "reset_password", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) ResendVerifyEmail(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	if err := h.authService.ResendVerifyEmail(c.UserContext(), req.Email); err != nil {
		return internalError(c, "resend_verify_email", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	resp, err := h.authService.VerifyEmail(c.UserContext(), c.Params("token"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidVerifyToken) {
			return badRequest(c, "Invalid token")
		}
		return internalError(c, "verify_email", err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) CheckInvitation(c *fiber.Ctx) error {
	resp, err := h.authService.CheckInvitation(c.UserContext(), c.Params("code"))
	if err != nil {
		return notFound(c, "Invitation not found")
	}
	return c.JSON(resp)
}

func (h *AuthHandler) SignupWithInvitation(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.authService.SignupWithInvitation(c.UserContext(), c.Params("code"), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvitationNotFound):
			return notFound(c, "Invitation not found")
		case errors.Is(err, services.ErrEmailMismatch), errors.Is(err, services.ErrAccountExists):
			return badRequest(c, err.Error())
		}
		return internalError(c, "signup_with_invitation", err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	return c.JSON(tenant.GetUser(c))
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.ProfilePatchRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.authService.UpdateProfile(c.UserContext(), tenant.GetUser(c), &req)
	if err != nil {
		return internalError(c, "update_profile", err)
	}
	return c.JSON(user)
}
