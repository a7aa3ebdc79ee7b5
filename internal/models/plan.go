package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan is an entitlement template. Plans are never deleted, only
// deactivated, because historical subscriptions keep pointing at them.
type Plan struct {
	ID                  uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	Name                string        `gorm:"size:100;not null" json:"name"`
	Label               *string       `gorm:"size:100" json:"label"`
	Group               string        `gorm:"size:100;not null" json:"group"`
	Description         string        `gorm:"type:text" json:"description"`
	PriceBeforeDiscount *float64      `gorm:"type:numeric(10,2)" json:"price_before_discount"`
	Price               float64       `gorm:"type:numeric(10,2);default:0" json:"price"`
	StripePriceID       string        `gorm:"size:255;default:''" json:"-"`
	NumberOfUsers       int           `gorm:"default:1" json:"number_of_users"`
	PageCredit          int           `gorm:"default:1000" json:"page_credit"`
	DailyPageCredit     int           `gorm:"default:100" json:"daily_page_credit"`
	CrawlMaxDepth       int           `gorm:"default:3" json:"crawl_max_depth"`
	CrawlMaxLimit       int           `gorm:"default:100" json:"crawl_max_limit"`
	MaxConcurrentCrawl  int           `gorm:"default:1" json:"max_concurrent_crawl"`
	IsDefault           bool          `gorm:"default:false" json:"is_default"`
	Order               int           `gorm:"default:0" json:"-"`
	IsActive            bool          `gorm:"default:true;index" json:"-"`
	CreatedAt           time.Time     `json:"-"`
	UpdatedAt           time.Time     `json:"-"`
	Features            []PlanFeature `gorm:"foreignKey:PlanID" json:"features"`
}

type PlanFeature struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	PlanID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Order     int       `gorm:"default:0" json:"-"`
	Icon      *string   `gorm:"size:100" json:"icon"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	HelpText  *string   `gorm:"type:text" json:"help_text"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
