package dto

import (
	"encoding/json"
	"testing"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(&RegisterRequest{Email: "not-an-email", Password: "longenough"})
	require.Error(t, err)
	assert.Equal(t, "email must be a valid email address", err.Error())

	err = Validate(&RegisterRequest{Email: "a@b.co", Password: "short"})
	require.Error(t, err)
	assert.Equal(t, "password must be at least 8 characters", err.Error())

	assert.NoError(t, Validate(&RegisterRequest{Email: "a@b.co", Password: "longenough"}))
}

func TestValidateNestedCrawlOptions(t *testing.T) {
	req := NewCrawlRequest()
	req.URL = "https://example.com"
	require.NoError(t, Validate(req))

	req.Options.SpiderOptions.PageLimit = 0
	err := Validate(req)
	require.Error(t, err)
	assert.Equal(t, "page_limit must be at least 1", err.Error())
}

func TestBatchCrawlNeedsURLs(t *testing.T) {
	req := NewBatchCrawlRequest()
	err := Validate(req)
	require.Error(t, err)

	req.URLs = []string{"https://a.example", "nope"}
	assert.Error(t, Validate(req))

	req.URLs = []string{"https://a.example", "https://b.example"}
	assert.NoError(t, Validate(req))
}

func TestCrawlDefaultsSurviveDecoding(t *testing.T) {
	req := NewCrawlRequest()
	body := `{"url":"https://example.com","options":{"spider_options":{"max_depth":3,"page_limit":50}}}`
	require.NoError(t, json.Unmarshal([]byte(body), req))

	assert.Equal(t, 3, req.Options.SpiderOptions.MaxDepth)
	assert.Equal(t, 50, req.Options.SpiderOptions.PageLimit)
	assert.Equal(t, 100, req.Options.PageOptions.WaitTime)
	assert.Equal(t, 15000, req.Options.PageOptions.Timeout)
	assert.True(t, req.Options.PageOptions.OnlyMainContent)
	require.NotNil(t, req.Options.PageOptions.Locale)
	assert.Equal(t, "en-US", *req.Options.PageOptions.Locale)
}

func TestSearchDefaults(t *testing.T) {
	req := NewSearchRequest()
	require.NoError(t, json.Unmarshal([]byte(`{"query":"golang"}`), req))

	assert.Equal(t, 5, req.ResultLimit)
	assert.Equal(t, models.SearchDepthBasic, req.SearchOptions.Depth)
	assert.NoError(t, Validate(req))

	req.ResultLimit = 21
	err := Validate(req)
	require.Error(t, err)
	assert.Equal(t, "result_limit must be at most 20", err.Error())
}

func TestGlobalProxyCategory(t *testing.T) {
	req := GlobalProxyServerRequest{
		ProxyServerRequest: ProxyServerRequest{Name: "eu", Slug: "eu", ProxyType: "http", Host: "10.0.0.1", Port: 3128},
		Category: models.ProxyCategoryTeam,
	}
	err := Validate(&req)
	require.Error(t, err)
	assert.Equal(t, "category must be one of: general premium", err.Error())

	req.Category = models.ProxyCategoryPremium
	assert.NoError(t, Validate(&req))
}

func TestNewCrawlResponse(t *testing.T) {
	job := &models.CrawlRequest{URLs: []string{"https://a.example", "https://b.example"}, CrawlType: models.CrawlTypeBatch}
	resp := NewCrawlResponse(job, 7)
	assert.Equal(t, "https://a.example", resp.URL)
	assert.Equal(t, int64(7), resp.NumberOfDocuments)

	empty := NewCrawlResponse(&models.CrawlRequest{}, 0)
	assert.Equal(t, "", empty.URL)
}
