package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota/quotatest"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jobApp struct {
	app  *fiber.App
	repo *quotatest.Repository
	team uuid.UUID
}

func newJobApp(t *testing.T, mode quota.Mode) *jobApp {
	t.Helper()
	repo := quotatest.New()
	team := uuid.New()
	h := NewJobHandler(quota.NewController(repo, quota.NewResolver(mode)), nil)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		tenant.SetTeam(c, &models.Team{ID: team})
		return c.Next()
	})
	app.Post("/crawl-requests", h.CreateCrawl)
	app.Post("/crawl-requests/batch", h.CreateBatchCrawl)
	app.Post("/search", h.CreateSearch)
	app.Post("/sitemaps", h.CreateSitemap)
	return &jobApp{app: app, repo: repo, team: team}
}

func (a *jobApp) subscribe(remain, daily, depth int) {
	plan := a.repo.AddPlan(&models.Plan{
		Name:               "Test",
		PageCredit:         remain,
		DailyPageCredit:    daily,
		CrawlMaxDepth:      depth,
		MaxConcurrentCrawl: 5,
		IsActive:           true,
	})
	a.repo.AddSubscription(a.team, plan, remain, daily)
}

func (a *jobApp) post(t *testing.T, path string, body any) (int, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decodeError(t *testing.T, body []byte) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func crawlBody(depth, pages int, proxy string) map[string]any {
	spider := map[string]any{"max_depth": depth, "page_limit": pages}
	if proxy != "" {
		spider["proxy_server"] = proxy
	}
	return map[string]any{
		"url":     "https://example.com",
		"options": map[string]any{"spider_options": spider},
	}
}

func TestCreateCrawlAdmitted(t *testing.T) {
	a := newJobApp(t, quota.ModeMetered)
	a.subscribe(100, 50, 3)

	status, body := a.post(t, "/crawl-requests", crawlBody(2, 10, ""))
	require.Equal(t, fiber.StatusCreated, status, string(body))

	require.Len(t, a.repo.Crawls, 1)
	job := a.repo.Crawls[0]
	assert.Equal(t, a.team, job.TeamID)
	assert.Equal(t, models.JobStatusNew, job.Status)
	assert.Equal(t, 10, job.PageLimit())

	var resp dto.CrawlResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, job.ID, resp.UUID)
}

func TestCreateCrawlNoSubscription(t *testing.T) {
	a := newJobApp(t, quota.ModeMetered)

	status, body := a.post(t, "/crawl-requests", crawlBody(1, 1, ""))
	assert.Equal(t, fiber.StatusForbidden, status)
	out := decodeError(t, body)
	assert.Equal(t, string(quota.CodeNoActiveSubscription), out.Code)
	assert.Empty(t, a.repo.Crawls)
}

func TestCreateCrawlRejections(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]any
		status  int
		code    quota.Code
		message string
	}{
		{
			name:    "plan credit",
			body:    crawlBody(1, 30, ""),
			status:  fiber.StatusForbidden,
			code:    quota.CodeInsufficientCredit,
			message: "You just have 20 page credits left in your plan",
		},
		{
			name:    "daily credit",
			body:    crawlBody(1, 15, ""),
			status:  fiber.StatusForbidden,
			code:    quota.CodeInsufficientCredit,
			message: "You just have 10 daily pages left in your plan",
		},
		{
			name:    "depth",
			body:    crawlBody(4, 1, ""),
			status:  fiber.StatusForbidden,
			code:    quota.CodeDepthLimitExceeded,
			message: "Your plan does not support more than 2 depth",
		},
		{
			name:    "unknown proxy",
			body:    crawlBody(1, 1, "missing"),
			status:  fiber.StatusBadRequest,
			code:    quota.CodeProxyNotFound,
			message: "Proxy server does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newJobApp(t, quota.ModeMetered)
			a.subscribe(20, 10, 2)

			status, body := a.post(t, "/crawl-requests", tt.body)
			assert.Equal(t, tt.status, status)
			out := decodeError(t, body)
			assert.True(t, out.Error)
			assert.Equal(t, string(tt.code), out.Code)
			assert.Equal(t, tt.message, out.Message)
			assert.Empty(t, a.repo.Crawls)
		})
	}
}

func TestCreateCrawlUnmeteredSkipsLimits(t *testing.T) {
	a := newJobApp(t, quota.ModeUnmetered)

	status, body := a.post(t, "/crawl-requests", crawlBody(50, 10000, ""))
	require.Equal(t, fiber.StatusCreated, status, string(body))
	assert.Len(t, a.repo.Crawls, 1)
}

func TestCreateCrawlInvalidBody(t *testing.T) {
	a := newJobApp(t, quota.ModeUnmetered)

	status, _ := a.post(t, "/crawl-requests", map[string]any{"url": "not a url"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	req := httptest.NewRequest(http.MethodPost, "/crawl-requests", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, a.repo.Crawls)
}

func TestCreateBatchCrawl(t *testing.T) {
	a := newJobApp(t, quota.ModeMetered)
	a.subscribe(2, 2, 0)

	status, body := a.post(t, "/crawl-requests/batch", map[string]any{
		"urls": []string{"https://a.example", "https://b.example", "https://c.example"},
	})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, string(quota.CodeInsufficientCredit), decodeError(t, body).Code)

	status, body = a.post(t, "/crawl-requests/batch", map[string]any{
		"urls": []string{"https://a.example", "https://b.example"},
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	require.Len(t, a.repo.Crawls, 1)
	assert.Equal(t, models.CrawlTypeBatch, a.repo.Crawls[0].CrawlType)
}

func TestCreateSearchAndSitemap(t *testing.T) {
	a := newJobApp(t, quota.ModeUnmetered)

	status, body := a.post(t, "/search", map[string]any{"query": "golang"})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	require.Len(t, a.repo.Searches, 1)
	assert.Equal(t, "golang", a.repo.Searches[0].Query)

	status, body = a.post(t, "/sitemaps", map[string]any{"url": "https://example.com"})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	assert.Len(t, a.repo.Sitemaps, 1)
}

func TestCreateSearchValidation(t *testing.T) {
	a := newJobApp(t, quota.ModeUnmetered)

	status, _ := a.post(t, "/search", map[string]any{"query": "golang", "result_limit": 50})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Empty(t, a.repo.Searches)
}
