package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type ProxyHandler struct {
	proxyService *services.ProxyService
}

func NewProxyHandler(proxyService *services.ProxyService) *ProxyHandler {
	return &ProxyHandler{proxyService: proxyService}
}

func (h *ProxyHandler) List(c *fiber.Ctx) error {
	proxies, err := h.proxyService.List(c.UserContext(), tenant.GetTeamID(c))
	if err != nil {
		return internalError(c, "list_proxies", err)
	}
	out := make([]dto.ProxyServerResponse, len(proxies))
	for i := range proxies {
		out[i] = dto.NewProxyServerResponse(&proxies[i])
	}
	return c.JSON(out)
}

func (h *ProxyHandler) ListAll(c *fiber.Ctx) error {
	proxies, err := h.proxyService.ListAll(c.UserContext(), tenant.GetTeamID(c))
	if err != nil {
		return internalError(c, "list_all_proxies", err)
	}
	out := make([]dto.ProxyServerListItem, len(proxies))
	for i, p := range proxies {
		out[i] = dto.ProxyServerListItem{Name: p.Name, Slug: p.Slug, Category: p.Category}
	}
	return c.JSON(out)
}

func (h *ProxyHandler) Get(c *fiber.Ctx) error {
	proxy, err := h.proxyService.Get(c.UserContext(), tenant.GetTeamID(c), c.Params("slug"))
	if err != nil {
		return h.fail(c, "get_proxy", err)
	}
	return c.JSON(dto.NewProxyServerResponse(proxy))
}

func (h *ProxyHandler) Create(c *fiber.Ctx) error {
	var req dto.ProxyServerRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	proxy, err := h.proxyService.Create(c.UserContext(), tenant.GetTeamID(c), &req)
	if err != nil {
		return h.fail(c, "create_proxy", err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewProxyServerResponse(proxy))
}

func (h *ProxyHandler) Update(c *fiber.Ctx) error {
	var req dto.ProxyServerRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	proxy, err := h.proxyService.Update(c.UserContext(), tenant.GetTeamID(c), c.Params("slug"), &req)
	if err != nil {
		return h.fail(c, "update_proxy", err)
	}
	return c.JSON(dto.NewProxyServerResponse(proxy))
}

func (h *ProxyHandler) Delete(c *fiber.Ctx) error {
	if err := h.proxyService.Delete(c.UserContext(), tenant.GetTeamID(c), c.Params("slug")); err != nil {
		return h.fail(c, "delete_proxy", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProxyHandler) Test(c *fiber.Ctx) error {
	var req dto.TestProxyRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	resp, err := h.proxyService.Test(c.UserContext(), tenant.GetTeamID(c), &req)
	if err != nil {
		return h.fail(c, "test_proxy", err)
	}
	return c.JSON(resp)
}

// CreateGlobal adds a general or premium proxy. Operators only.
func (h *ProxyHandler) CreateGlobal(c *fiber.Ctx) error {
	var req dto.GlobalProxyServerRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	proxy, err := h.proxyService.CreateGlobal(c.UserContext(), &req)
	if err != nil {
		return h.fail(c, "create_global_proxy", err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewProxyServerResponse(proxy))
}

func (h *ProxyHandler) fail(c *fiber.Ctx, action string, err error) error {
	if ok, werr := respondQuota(c, err); ok {
		return werr
	}
	switch {
	case errors.Is(err, services.ErrProxyNotFound):
		return notFound(c, "Proxy server not found")
	case errors.Is(err, services.ErrProxySlugTaken):
		return badRequest(c, "Proxy Server with this slug already exists")
	case errors.Is(err, services.ErrProxyIncomplete), errors.Is(err, services.ErrInvalidProxyScope):
		return badRequest(c, err.Error())
	}
	return internalError(c, action, err)
}
