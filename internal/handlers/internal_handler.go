package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// InternalHandler takes reports from the execution backend: status changes,
// crawl results and consumed credits.
type InternalHandler struct {
	jobs *services.JobService
}

func NewInternalHandler(jobs *services.JobService) *InternalHandler {
	return &InternalHandler{jobs: jobs}
}

func (h *InternalHandler) ReportStatus(c *fiber.Ctx) error {
	kind := models.JobKind(c.Params("kind"))
	id, err := uuid.Parse(c.Params("id"))
	if err != nil || !kind.Valid() {
		return notFound(c, "Not found")
	}

	var req dto.JobStatusReport
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	if err := h.jobs.ReportStatus(c.UserContext(), kind, id, &req); err != nil {
		return h.fail(c, "report_status", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *InternalHandler) AddCrawlResult(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c, "Not found")
	}

	var req dto.CrawlResultReport
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	result, err := h.jobs.AddCrawlResult(c.UserContext(), id, &req)
	if err != nil {
		return h.fail(c, "add_crawl_result", err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *InternalHandler) RecordUsage(c *fiber.Ctx) error {
	var req dto.UsageReportRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	if err := h.jobs.RecordUsage(c.UserContext(), &req); err != nil {
		return h.fail(c, "record_usage", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *InternalHandler) fail(c *fiber.Ctx, action string, err error) error {
	if ok, werr := respondQuota(c, err); ok {
		return werr
	}
	switch {
	case errors.Is(err, services.ErrJobNotFound), errors.Is(err, services.ErrUnknownKind):
		return notFound(c, "Not found")
	case errors.Is(err, services.ErrStatusChanged):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return internalError(c, action, err)
}
