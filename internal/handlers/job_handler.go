package handlers

import (
	"errors"
	"strings"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// JobHandler serves crawl, search and sitemap requests. New jobs go through
// admission; everything else is plain reads and cancellation.
type JobHandler struct {
	admission *quota.Controller
	jobs      *services.JobService
}

func NewJobHandler(admission *quota.Controller, jobs *services.JobService) *JobHandler {
	return &JobHandler{admission: admission, jobs: jobs}
}

func (h *JobHandler) CreateCrawl(c *fiber.Ctx) error {
	req := dto.NewCrawlRequest()
	if err := parseBody(c, req); err != nil {
		return invalidBody(c, err)
	}

	job, err := h.admission.AdmitCrawl(c.UserContext(), quota.CrawlAdmission{
		TeamID:  tenant.GetTeamID(c),
		URL:     req.URL,
		Options: req.Options,
	})
	if err != nil {
		return h.fail(c, models.JobKindCrawl, "admit_crawl", err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewCrawlResponse(job, 0))
}

func (h *JobHandler) CreateBatchCrawl(c *fiber.Ctx) error {
	req := dto.NewBatchCrawlRequest()
	if err := parseBody(c, req); err != nil {
		return invalidBody(c, err)
	}

	job, err := h.admission.AdmitBatchCrawl(c.UserContext(), quota.BatchCrawlAdmission{
		TeamID:  tenant.GetTeamID(c),
		URLs:    req.URLs,
		Options: req.Options,
	})
	if err != nil {
		return h.fail(c, models.JobKindCrawl, "admit_batch_crawl", err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewCrawlResponse(job, 0))
}

func (h *JobHandler) CreateSearch(c *fiber.Ctx) error {
	req := dto.NewSearchRequest()
	if err := parseBody(c, req); err != nil {
		return invalidBody(c, err)
	}

	job, err := h.admission.AdmitSearch(c.UserContext(), quota.SearchAdmission{
		TeamID:      tenant.GetTeamID(c),
		Query:       req.Query,
		Options:     req.SearchOptions,
		ResultLimit: req.ResultLimit,
	})
	if err != nil {
		return h.fail(c, models.JobKindSearch, "admit_search", err)
	}
	return c.Status(fiber.StatusCreated).JSON(job)
}

func (h *JobHandler) CreateSitemap(c *fiber.Ctx) error {
	req := dto.NewSitemapRequest()
	if err := parseBody(c, req); err != nil {
		return invalidBody(c, err)
	}

	job, err := h.admission.AdmitSitemap(c.UserContext(), quota.SitemapAdmission{
		TeamID:  tenant.GetTeamID(c),
		URL:     req.URL,
		Options: req.Options,
	})
	if err != nil {
		return h.fail(c, models.JobKindSitemap, "admit_sitemap", err)
	}
	return c.Status(fiber.StatusCreated).JSON(job)
}

func (h *JobHandler) ListCrawls(c *fiber.Ctx) error {
	out, err := h.jobs.ListCrawls(c.UserContext(), tenant.GetTeamID(c))
	if err != nil {
		return internalError(c, "list_crawls", err)
	}
	return c.JSON(out)
}

func (h *JobHandler) GetCrawl(c *fiber.Ctx) error {
	id, ok := jobID(c)
	if !ok {
		return h.fail(c, models.JobKindCrawl, "get_crawl", services.ErrJobNotFound)
	}
	out, err := h.jobs.GetCrawl(c.UserContext(), tenant.GetTeamID(c), id)
	if err != nil {
		return h.fail(c, models.JobKindCrawl, "get_crawl", err)
	}
	return c.JSON(out)
}

func (h *JobHandler) ListCrawlResults(c *fiber.Ctx) error {
	id, ok := jobID(c)
	if !ok {
		return h.fail(c, models.JobKindCrawl, "list_crawl_results", services.ErrJobNotFound)
	}
	out, err := h.jobs.ListCrawlResults(c.UserContext(), tenant.GetTeamID(c), id)
	if err != nil {
		return h.fail(c, models.JobKindCrawl, "list_crawl_results", err)
	}
	return c.JSON(out)
}

func (h *JobHandler) GetCrawlResult(c *fiber.Ctx) error {
	id, ok := jobID(c)
	if !ok {
		return h.fail(c, models.JobKindCrawl, "get_crawl_result", services.ErrJobNotFound)
	}
	resultID, err := uuid.Parse(c.Params("result_id"))
	if err != nil {
		return h.fail(c, models.JobKindCrawl, "get_crawl_result", services.ErrResultNotFound)
	}
	out, err := h.jobs.GetCrawlResult(c.UserContext(), tenant.GetTeamID(c), id, resultID)
	if err != nil {
		return h.fail(c, models.JobKindCrawl, "get_crawl_result", err)
	}
	return c.JSON(out)
}

func (h *JobHandler) ListSearches(c *fiber.Ctx) error {
	out, err := h.jobs.ListSearches(c.UserContext(), tenant.GetTeamID(c))
	if err != nil {
		return internalError(c, "list_searches", err)
	}
	return c.JSON(out)
}

func (h *JobHandler) GetSearch(c *fiber.Ctx) error {
	id, ok := jobID(c)
	if !ok {
		return h.fail(c, models.JobKindSearch, "get_search", services.ErrJobNotFound)
	}
	out, err := h.jobs.GetSearch(c.UserContext(), tenant.GetTeamID(c), id)
	if err != nil {
		return h.fail(c, models.JobKindSearch, "get_search", err)
	}
	return c.JSON(out)
}

func (h *JobHandler) ListSitemaps(c *fiber.Ctx) error {
	out, err := h.jobs.ListSitemaps(c.UserContext(), tenant.GetTeamID(c))
	if err != nil {
		return internalError(c, "list_sitemaps", err)
	}
	return c.JSON(out)
}

func (h *JobHandler) GetSitemap(c *fiber.Ctx) error {
	id, ok := jobID(c)
	if !ok {
		return h.fail(c, models.JobKindSitemap, "get_sitemap", services.ErrJobNotFound)
	}
	out, err := h.jobs.GetSitemap(c.UserContext(), tenant.GetTeamID(c), id)
	if err != nil {
		return h.fail(c, models.JobKindSitemap, "get_sitemap", err)
	}
	return c.JSON(out)
}

// Status returns the status of one job of the given kind.
func (h *JobHandler) Status(kind models.JobKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := jobID(c)
		if !ok {
			return h.fail(c, kind, "job_status", services.ErrJobNotFound)
		}
		status, err := h.jobs.Status(c.UserContext(), kind, tenant.GetTeamID(c), id)
		if err != nil {
			return h.fail(c, kind, "job_status", err)
		}
		return c.JSON(dto.StatusResponse{Status: status})
	}
}

// Cancel asks the execution backend to stop a running job.
func (h *JobHandler) Cancel(kind models.JobKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := jobID(c)
		if !ok {
			return h.fail(c, kind, "cancel_job", services.ErrJobNotFound)
		}
		if err := h.jobs.Cancel(c.UserContext(), kind, tenant.GetTeamID(c), id); err != nil {
			return h.fail(c, kind, "cancel_job", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func (h *JobHandler) Usage(c *fiber.Ctx) error {
	out, err := h.jobs.UsageSummary(c.UserContext(), tenant.GetTeamID(c))
	if err != nil {
		return internalError(c, "usage_summary", err)
	}
	return c.JSON(out)
}

func (h *JobHandler) fail(c *fiber.Ctx, kind models.JobKind, action string, err error) error {
	if ok, werr := respondQuota(c, err); ok {
		return werr
	}
	switch {
	case errors.Is(err, services.ErrJobNotFound):
		return notFound(c, jobNotFound(kind))
	case errors.Is(err, services.ErrUnknownKind):
		return notFound(c, "Not found")
	case errors.Is(err, services.ErrResultNotFound):
		return notFound(c, "Crawl result not found")
	}
	return internalError(c, action, err)
}

// jobNotFound reads "Crawl request not found" and the like.
func jobNotFound(kind models.JobKind) string {
	label := kind.Label()
	if label == "" {
		return "Not found"
	}
	return strings.ToUpper(label[:1]) + label[1:] + " request not found"
}

func jobID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}
