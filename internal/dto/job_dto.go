package dto

import (
	"encoding/json"
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/google/uuid"
)

type CrawlRequest struct {
	URL     string              `json:"url" validate:"required,url"`
	Options models.CrawlOptions `json:"options"`
}

type BatchCrawlRequest struct {
	URLs    []string            `json:"urls" validate:"required,min=1,dive,url"`
	Options models.CrawlOptions `json:"options"`
}

type SearchRequest struct {
	Query         string               `json:"query" validate:"required"`
	SearchOptions models.SearchOptions `json:"search_options"`
	ResultLimit   int                  `json:"result_limit" validate:"min=1,max=20"`
}

type SitemapRequest struct {
	URL     string                `json:"url" validate:"required,url"`
	Options models.SitemapOptions `json:"options"`
}

// NewCrawlRequest returns a payload pre-filled with option defaults; the body
// is decoded on top of it.
func NewCrawlRequest() *CrawlRequest {
	return &CrawlRequest{Options: DefaultCrawlOptions()}
}

func NewBatchCrawlRequest() *BatchCrawlRequest {
	return &BatchCrawlRequest{Options: DefaultCrawlOptions()}
}

func NewSearchRequest() *SearchRequest {
	return &SearchRequest{
		ResultLimit: 5,
		SearchOptions: models.SearchOptions{
			TimeRange:  "any",
			SearchType: "web",
			Depth:      models.SearchDepthBasic,
		},
	}
}

func NewSitemapRequest() *SitemapRequest {
	return &SitemapRequest{Options: models.SitemapOptions{IncludeSubdomains: true}}
}

func DefaultCrawlOptions() models.CrawlOptions {
	locale := "en-US"
	return models.CrawlOptions{
		SpiderOptions: models.SpiderOptions{
			MaxDepth:  1,
			PageLimit: 1,
		},
		PageOptions: models.PageOptions{
			ExcludeTags:     []string{},
			IncludeTags:     []string{},
			WaitTime:        100,
			OnlyMainContent: true,
			Timeout:         15000,
			Locale:          &locale,
			ExtraHeaders:    map[string]any{},
			Actions:         []models.PageAction{},
		},
	}
}

type CrawlResponse struct {
	UUID              uuid.UUID           `json:"uuid"`
	URL               string              `json:"url"`
	URLs              []string            `json:"urls"`
	CrawlType         models.CrawlType    `json:"crawl_type"`
	Status            models.JobStatus    `json:"status"`
	Options           models.CrawlOptions `json:"options"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Duration          *int                `json:"duration"`
	NumberOfDocuments int64               `json:"number_of_documents"`
	Sitemap           *string             `json:"sitemap"`
}

func NewCrawlResponse(req *models.CrawlRequest, documents int64) CrawlResponse {
	url := ""
	if len(req.URLs) > 0 {
		url = req.URLs[0]
	}
	return CrawlResponse{
		UUID:              req.ID,
		URL:               url,
		URLs:              req.URLs,
		CrawlType:         req.CrawlType,
		Status:            req.Status,
		Options:           req.Options.Data(),
		CreatedAt:         req.CreatedAt,
		UpdatedAt:         req.UpdatedAt,
		Duration:          req.DurationSeconds,
		NumberOfDocuments: documents,
		Sitemap:           req.SitemapPath,
	}
}

type StatusResponse struct {
	Status models.JobStatus `json:"status"`
}

type UsageSummaryResponse struct {
	PeriodDays      int   `json:"period_days"`
	TotalRequests   int64 `json:"total_requests"`
	CrawlRequests   int64 `json:"crawl_requests"`
	SearchRequests  int64 `json:"search_requests"`
	SitemapRequests int64 `json:"sitemap_requests"`
	CreditsConsumed int64 `json:"credits_consumed"`
}

// JobStatusReport is sent by the execution backend when a job moves.
type JobStatusReport struct {
	Status   models.JobStatus `json:"status" validate:"required"`
	Duration *int             `json:"duration" validate:"omitempty,min=0"`
	Result   json.RawMessage  `json:"result"`
}

type CrawlResultReport struct {
	URL    string          `json:"url" validate:"required"`
	Result json.RawMessage `json:"result"`
}

type UsageReportRequest struct {
	TeamID      uuid.UUID      `json:"team_id" validate:"required"`
	Kind        models.JobKind `json:"kind" validate:"required,oneof=crawl search sitemap"`
	ObjectID    uuid.UUID      `json:"object_id" validate:"required"`
	RequestedBy string         `json:"requested_by"`
	Credits     int            `json:"credits" validate:"min=0"`
}
