package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlanService struct {
	db *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db}
}

func orderedFeatures(db *gorm.DB) *gorm.DB {
	return db.Order(`"order" ASC`)
}

// List returns the active plans in display order.
func (s *PlanService) List(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := s.db.WithContext(ctx).
		Preload("Features", orderedFeatures).
		Where("is_active = ?", true).
		Order(`"order" ASC`).
		Find(&plans).Error
	return plans, err
}

func (s *PlanService) Get(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	var plan models.Plan
	err := s.db.WithContext(ctx).
		Preload("Features", orderedFeatures).
		Where("id = ? AND is_active = ?", planID, true).
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, quota.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// DefaultPlans are seeded into an empty catalog.
func DefaultPlans() []models.Plan {
	label := func(s string) *string { return &s }
	return []models.Plan{
		{
			ID:                 uuid.New(),
			Name:               "Free",
			Label:              label("Starter"),
			Group:              "monthly",
			Description:        "Free starter plan",
			Price:              0,
			NumberOfUsers:      1,
			PageCredit:         1000,
			DailyPageCredit:    100,
			CrawlMaxDepth:      3,
			CrawlMaxLimit:      100,
			MaxConcurrentCrawl: 1,
			IsDefault:          true,
			Order:              1,
			IsActive:           true,
		},
		{
			ID:                 uuid.New(),
			Name:               "Pro",
			Label:              label("Scale"),
			Group:              "monthly",
			Description:        "Paid plan with higher limits",
			Price:              49,
			StripePriceID:      "local_pro",
			NumberOfUsers:      10,
			PageCredit:         100000,
			DailyPageCredit:    5000,
			CrawlMaxDepth:      10,
			CrawlMaxLimit:      10000,
			MaxConcurrentCrawl: 10,
			Order:              2,
			IsActive:           true,
		},
	}
}

// EnsureDefaultPlans seeds the catalog with plans when the plans table is
// empty. A nil slice seeds DefaultPlans.
func (s *PlanService) EnsureDefaultPlans(ctx context.Context, plans []models.Plan) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Plan{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if plans == nil {
		plans = DefaultPlans()
	}

	var features []models.PlanFeature
	for _, p := range plans {
		features = append(features, p.Features...)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Zero values such as is_default=false must not fall back to column defaults.
		if err := tx.Select("*").Omit("Features").Create(&plans).Error; err != nil {
			return err
		}
		if len(features) == 0 {
			return nil
		}
		return tx.Create(&features).Error
	})
	if err != nil {
		return err
	}
	slog.Info("seeded plans", "count", len(plans), "features", len(features))
	return nil
}
