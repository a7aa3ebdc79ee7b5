package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SpiderOptions struct {
	MaxDepth           int      `json:"max_depth" validate:"min=0"`
	PageLimit          int      `json:"page_limit" validate:"min=1"`
	ConcurrentRequests *int     `json:"concurrent_requests,omitempty"`
	AllowedDomains     []string `json:"allowed_domains,omitempty"`
	ExcludePaths       []string `json:"exclude_paths,omitempty"`
	IncludePaths       []string `json:"include_paths,omitempty"`
	ProxyServer        *string  `json:"proxy_server,omitempty"`
}

type PageAction struct {
	Type string `json:"type"`
}

type PageOptions struct {
	ExcludeTags           []string       `json:"exclude_tags"`
	IncludeTags           []string       `json:"include_tags"`
	WaitTime              int            `json:"wait_time" validate:"min=0"`
	IncludeHTML           bool           `json:"include_html"`
	OnlyMainContent       bool           `json:"only_main_content"`
	IncludeLinks          bool           `json:"include_links"`
	Timeout               int            `json:"timeout" validate:"min=0"`
	AcceptCookiesSelector *string        `json:"accept_cookies_selector"`
	Locale                *string        `json:"locale"`
	ExtraHeaders          map[string]any `json:"extra_headers"`
	Actions               []PageAction   `json:"actions"`
	IgnoreRendering       bool           `json:"ignore_rendering"`
}

type CrawlOptions struct {
	SpiderOptions SpiderOptions  `json:"spider_options"`
	PageOptions   PageOptions    `json:"page_options"`
	PluginOptions map[string]any `json:"plugin_options,omitempty"`
}

// CrawlRequest is one crawl job. Batch crawls carry several URLs with depth 0.
type CrawlRequest struct {
	ID              uuid.UUID                        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	TeamID          uuid.UUID                        `gorm:"type:uuid;not null;index:idx_crawl_team_created" json:"-"`
	URLs            datatypes.JSONSlice[string]      `gorm:"type:jsonb;not null" json:"urls"`
	CrawlType       CrawlType                        `gorm:"size:50;not null;default:'single'" json:"crawl_type"`
	Status          JobStatus                        `gorm:"size:50;not null;default:'new';index" json:"status"`
	Options         datatypes.JSONType[CrawlOptions] `gorm:"type:jsonb;not null" json:"options"`
	DurationSeconds *int                             `json:"duration"`
	SitemapPath     *string                          `gorm:"size:255" json:"sitemap"`
	CreatedAt       time.Time                        `gorm:"index:idx_crawl_team_created" json:"created_at"`
	UpdatedAt       time.Time                        `json:"updated_at"`
}

func (r *CrawlRequest) MaxDepth() int {
	return r.Options.Data().SpiderOptions.MaxDepth
}

func (r *CrawlRequest) PageLimit() int {
	return r.Options.Data().SpiderOptions.PageLimit
}

func (r *CrawlRequest) ProxyServer() *string {
	return r.Options.Data().SpiderOptions.ProxyServer
}

// CrawlResult is one scraped page reported back by the execution backend.
type CrawlResult struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	RequestID uuid.UUID      `gorm:"type:uuid;not null;index" json:"-"`
	URL       string         `gorm:"type:text;not null" json:"url"`
	Result    datatypes.JSON `gorm:"type:jsonb" json:"result"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
