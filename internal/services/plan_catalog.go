package services

import (
	"errors"
	"fmt"
	"os"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var ErrInvalidCatalog = errors.New("invalid plan catalog")

type catalogFile struct {
	Plans []catalogPlan `yaml:"plans"`
}

type catalogPlan struct {
	Name                string           `yaml:"name"`
	Label               *string          `yaml:"label"`
	Group               string           `yaml:"group"`
	Description         string           `yaml:"description"`
	PriceBeforeDiscount *float64         `yaml:"price_before_discount"`
	Price               float64          `yaml:"price"`
	StripePriceID       string           `yaml:"stripe_price_id"`
	NumberOfUsers       int              `yaml:"number_of_users"`
	PageCredit          int              `yaml:"page_credit"`
	DailyPageCredit     int              `yaml:"daily_page_credit"`
	CrawlMaxDepth       int              `yaml:"crawl_max_depth"`
	CrawlMaxLimit       int              `yaml:"crawl_max_limit"`
	MaxConcurrentCrawl  int              `yaml:"max_concurrent_crawl"`
	IsDefault           bool             `yaml:"is_default"`
	Features            []catalogFeature `yaml:"features"`
}

type catalogFeature struct {
	Title    string  `yaml:"title"`
	Icon     *string `yaml:"icon"`
	HelpText *string `yaml:"help_text"`
}

// LoadPlanCatalog reads plans from a YAML file. Display order follows the
// file; at most one plan may be the default.
func LoadPlanCatalog(path string) ([]models.Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	return ParsePlanCatalog(raw)
}

func ParsePlanCatalog(raw []byte) ([]models.Plan, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if len(file.Plans) == 0 {
		return nil, fmt.Errorf("%w: no plans", ErrInvalidCatalog)
	}

	defaults := 0
	plans := make([]models.Plan, 0, len(file.Plans))
	for i, p := range file.Plans {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: plan %d has no name", ErrInvalidCatalog, i+1)
		}
		if p.IsDefault {
			defaults++
		}
		if p.Group == "" {
			p.Group = "monthly"
		}
		if p.NumberOfUsers == 0 {
			p.NumberOfUsers = 1
		}

		plan := models.Plan{
			ID:                  uuid.New(),
			Name:                p.Name,
			Label:               p.Label,
			Group:               p.Group,
			Description:         p.Description,
			PriceBeforeDiscount: p.PriceBeforeDiscount,
			Price:               p.Price,
			StripePriceID:       p.StripePriceID,
			NumberOfUsers:       p.NumberOfUsers,
			PageCredit:          p.PageCredit,
			DailyPageCredit:     p.DailyPageCredit,
			CrawlMaxDepth:       p.CrawlMaxDepth,
			CrawlMaxLimit:       p.CrawlMaxLimit,
			MaxConcurrentCrawl:  p.MaxConcurrentCrawl,
			IsDefault:           p.IsDefault,
			Order:               i + 1,
			IsActive:            true,
		}
		for j, f := range p.Features {
			plan.Features = append(plan.Features, models.PlanFeature{
				ID:       uuid.New(),
				PlanID:   plan.ID,
				Order:    j + 1,
				Icon:     f.Icon,
				Title:    f.Title,
				HelpText: f.HelpText,
			})
		}
		plans = append(plans, plan)
	}
	if defaults > 1 {
		return nil, fmt.Errorf("%w: %d default plans", ErrInvalidCatalog, defaults)
	}
	return plans, nil
}
