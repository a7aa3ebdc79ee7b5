package handlers

import (
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PlanHandler struct {
	planService *services.PlanService
}

func NewPlanHandler(planService *services.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

func (h *PlanHandler) List(c *fiber.Ctx) error {
	plans, err := h.planService.List(c.UserContext())
	if err != nil {
		return internalError(c, "list_plans", err)
	}
	return c.JSON(plans)
}

func (h *PlanHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		_, werr := respondQuota(c, quota.ErrPlanNotFound)
		return werr
	}
	plan, err := h.planService.Get(c.UserContext(), id)
	if err != nil {
		if ok, werr := respondQuota(c, err); ok {
			return werr
		}
		return internalError(c, "get_plan", err)
	}
	return c.JSON(plan)
}
