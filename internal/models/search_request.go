package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SearchOptions struct {
	Language   *string     `json:"language,omitempty"`
	Country    *string     `json:"country,omitempty"`
	TimeRange  string      `json:"time_renge,omitempty"`
	SearchType string      `json:"search_type,omitempty"`
	Depth      SearchDepth `json:"depth"`
}

// SearchRequest is one search job. Its cost scales with ResultLimit and depth.
type SearchRequest struct {
	ID              uuid.UUID                         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	TeamID          uuid.UUID                         `gorm:"type:uuid;not null;index:idx_search_team_created" json:"-"`
	Query           string                            `gorm:"type:text;not null" json:"query"`
	SearchOptions   datatypes.JSONType[SearchOptions] `gorm:"type:jsonb;not null" json:"search_options"`
	ResultLimit     int                               `gorm:"not null;default:5" json:"result_limit"`
	Status          JobStatus                         `gorm:"size:50;not null;default:'new';index" json:"status"`
	DurationSeconds *int                              `json:"duration"`
	Result          datatypes.JSON                    `gorm:"type:jsonb" json:"result"`
	CreatedAt       time.Time                         `gorm:"index:idx_search_team_created" json:"created_at"`
	UpdatedAt       time.Time                         `json:"updated_at"`
}

func (r *SearchRequest) Depth() SearchDepth {
	return r.SearchOptions.Data().Depth
}
