package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/gofiber/fiber/v2"
)

// Installer reports whether the first superuser exists.
type Installer interface {
	IsInstalled(ctx context.Context) (bool, error)
}

type HealthHandler struct {
	cfg       *config.Config
	mode      quota.Mode
	installer Installer
	ping      func() error
}

// NewHealthHandler takes the database ping used by Check.
func NewHealthHandler(cfg *config.Config, mode quota.Mode, installer Installer, ping func() error) *HealthHandler {
	return &HealthHandler{cfg: cfg, mode: mode, installer: installer, ping: ping}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Mode:      h.mode.String(),
	})
}

// Settings is the public configuration the frontend boots with.
func (h *HealthHandler) Settings(c *fiber.Ctx) error {
	installed, err := h.installer.IsInstalled(c.UserContext())
	if err != nil {
		return internalError(c, "settings", err)
	}

	return c.JSON(dto.SettingsResponse{
		IsEnterpriseModeActive: h.mode.Metered(),
		IsInstalled:            installed,
		IsSignupActive:         h.cfg.SignupActive,
		IsLoginActive:          h.cfg.LoginActive,
		IsGithubLoginActive:    h.cfg.GithubLoginActive,
		IsGoogleLoginActive:    h.cfg.GoogleLoginActive,
		GithubClientID:         h.cfg.GithubClientID,
		GoogleClientID:         h.cfg.GoogleClientID,
		GoogleAnalyticsID:      h.cfg.GoogleAnalyticsID,
		MaxCrawlConcurrency:    h.cfg.MaxCrawlConcurrency,
		MCPServer:              h.cfg.MCPServer,
		APIVersion:             h.cfg.APIVersion,
		PolicyURL:              h.cfg.PolicyURL,
		TermsURL:               h.cfg.TermsURL,
	})
}
