package handlers

import (
	"encoding/json"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	subscriptionService *services.SubscriptionService
}

func NewWebhookHandler(subscriptionService *services.SubscriptionService) *WebhookHandler {
	return &WebhookHandler{subscriptionService: subscriptionService}
}

// HandleStripe stores every payment provider event and applies the
// subscription ones.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	raw := append([]byte(nil), c.Body()...)

	var event dto.StripeWebhook
	if err := json.Unmarshal(raw, &event); err != nil || event.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	if err := h.subscriptionService.HandleStripeEvent(c.UserContext(), raw, &event); err != nil {
		slog.Error("webhook processing failed", "event_type", event.Type, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed", "event_type", event.Type)
	return c.SendStatus(fiber.StatusNoContent)
}
