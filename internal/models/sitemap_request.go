package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SitemapOptions struct {
	IncludeSubdomains bool     `json:"include_subdomains"`
	IgnoreSitemapXML  bool     `json:"ignore_sitemap_xml"`
	Search            *string  `json:"search,omitempty"`
	IncludePaths      []string `json:"include_paths,omitempty"`
	ExcludePaths      []string `json:"exclude_paths,omitempty"`
	ProxyServer       *string  `json:"proxy_server,omitempty"`
}

type SitemapRequest struct {
	ID              uuid.UUID                          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	TeamID          uuid.UUID                          `gorm:"type:uuid;not null;index:idx_sitemap_team_created" json:"-"`
	URL             string                             `gorm:"type:text;not null" json:"url"`
	Options         datatypes.JSONType[SitemapOptions] `gorm:"type:jsonb;not null" json:"options"`
	Status          JobStatus                          `gorm:"size:50;not null;default:'new';index" json:"status"`
	DurationSeconds *int                               `json:"duration"`
	Result          datatypes.JSON                     `gorm:"type:jsonb" json:"result"`
	CreatedAt       time.Time                          `gorm:"index:idx_sitemap_team_created" json:"created_at"`
	UpdatedAt       time.Time                          `json:"updated_at"`
}

func (r *SitemapRequest) IgnoreSitemapXML() bool {
	return r.Options.Data().IgnoreSitemapXML
}

func (r *SitemapRequest) ProxyServer() *string {
	return r.Options.Data().ProxyServer
}
