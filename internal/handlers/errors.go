package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/gofiber/fiber/v2"
)

// quotaStatus maps admission and ledger rejections to HTTP statuses.
func quotaStatus(code quota.Code) int {
	switch code {
	case quota.CodeProxyNotFound:
		return fiber.StatusBadRequest
	case quota.CodePlanNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusForbidden
	}
}

// respondQuota writes a *quota.Error as a client error. It reports false when
// err is not a quota rejection.
func respondQuota(c *fiber.Ctx, err error) (bool, error) {
	var qe *quota.Error
	if !errors.As(err, &qe) {
		return false, nil
	}
	return true, c.Status(quotaStatus(qe.Code)).JSON(dto.ErrorResponse{
		Error:   true,
		Code:    string(qe.Code),
		Message: qe.Message,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func internalError(c *fiber.Ctx, action string, err error) error {
	slog.Error("request failed", "action", action, "request_id", requestID(c), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

var errInvalidBody = errors.New("invalid request body")

// parseBody decodes the body into req and validates it.
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return errInvalidBody
	}
	return dto.Validate(req)
}

// invalidBody answers a parseBody failure.
func invalidBody(c *fiber.Ctx, err error) error {
	if errors.Is(err, errInvalidBody) {
		return badRequest(c, "Invalid request body")
	}
	return badRequest(c, err.Error())
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
