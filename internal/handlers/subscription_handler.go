package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

func (h *SubscriptionHandler) List(c *fiber.Ctx) error {
	subs, err := h.subscriptionService.List(c.UserContext(), tenant.GetTeamID(c))
	if err != nil {
		return internalError(c, "list_subscriptions", err)
	}
	return c.JSON(subs)
}

func (h *SubscriptionHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Subscription not found")
	}
	sub, err := h.subscriptionService.Get(c.UserContext(), tenant.GetTeamID(c), id)
	if errors.Is(err, services.ErrSubscriptionNotFound) {
		return notFound(c, "Subscription not found")
	}
	if err != nil {
		return internalError(c, "get_subscription", err)
	}
	return c.JSON(sub)
}

func (h *SubscriptionHandler) Current(c *fiber.Ctx) error {
	resp, err := h.subscriptionService.Current(c.UserContext(), tenant.GetTeamID(c))
	if err != nil {
		return h.fail(c, "current_subscription", err)
	}
	return c.JSON(resp)
}

func (h *SubscriptionHandler) Start(c *fiber.Ctx) error {
	var req dto.StartSubscriptionRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	resp, err := h.subscriptionService.Start(c.UserContext(), tenant.GetTeamID(c), req.PlanUUID)
	if err != nil {
		return h.fail(c, "start_subscription", err)
	}
	return c.JSON(resp)
}

func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	if err := h.subscriptionService.Cancel(c.UserContext(), tenant.GetTeamID(c)); err != nil {
		return h.fail(c, "cancel_subscription", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SubscriptionHandler) Renew(c *fiber.Ctx) error {
	if err := h.subscriptionService.Renew(c.UserContext(), tenant.GetTeamID(c)); err != nil {
		return h.fail(c, "renew_subscription", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SubscriptionHandler) Manage(c *fiber.Ctx) error {
	return c.JSON(dto.RedirectResponse{RedirectURL: h.subscriptionService.ManageURL()})
}

// fail answers a missing subscription with 404; it is not an admission
// rejection on these endpoints.
func (h *SubscriptionHandler) fail(c *fiber.Ctx, action string, err error) error {
	if errors.Is(err, quota.ErrNoActiveSubscription) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error:   true,
			Code:    string(quota.CodeNoActiveSubscription),
			Message: quota.ErrNoActiveSubscription.Message,
		})
	}
	if ok, werr := respondQuota(c, err); ok {
		return werr
	}
	return internalError(c, action, err)
}
