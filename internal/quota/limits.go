package quota

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Limits are a team's effective entitlements at one instant.
type Limits struct {
	RemainPageCredit       int
	RemainDailyPageCredit  int
	MaxDepth               int
	MaxConcurrent          int
	IsDefaultPlan          bool
	AllowedProxyCategories []models.ProxyCategory
}

func (l *Limits) AllowsProxyCategory(c models.ProxyCategory) bool {
	return slices.Contains(l.AllowedProxyCategories, c)
}

// SubscriptionFinder is the part of Repository the Resolver reads.
type SubscriptionFinder interface {
	ActiveSubscription(ctx context.Context, teamID uuid.UUID) (*models.Subscription, error)
}

type Resolver struct {
	mode Mode
}

func NewResolver(mode Mode) *Resolver {
	return &Resolver{mode: mode}
}

func (r *Resolver) Mode() Mode {
	return r.mode
}

// Resolve computes the team's limits. In metered mode a team without an
// active subscription gets ErrNoActiveSubscription.
func (r *Resolver) Resolve(ctx context.Context, finder SubscriptionFinder, teamID uuid.UUID) (*Limits, error) {
	if !r.mode.Metered() {
		return &Limits{
			RemainPageCredit:      Unlimited,
			RemainDailyPageCredit: Unlimited,
			MaxDepth:              Unlimited,
			MaxConcurrent:         Unlimited,
			IsDefaultPlan:         false,
			AllowedProxyCategories: []models.ProxyCategory{
				models.ProxyCategoryTeam,
				models.ProxyCategoryGeneral,
				models.ProxyCategoryPremium,
			},
		}, nil
	}

	sub, err := finder.ActiveSubscription(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, fmt.Errorf("load active subscription: %w", err)
	}

	allowed := []models.ProxyCategory{models.ProxyCategoryTeam, models.ProxyCategoryGeneral}
	if !sub.Plan.IsDefault {
		allowed = append(allowed, models.ProxyCategoryPremium)
	}

	return &Limits{
		RemainPageCredit:       sub.RemainPageCredit,
		RemainDailyPageCredit:  sub.RemainDailyPageCredit,
		MaxDepth:               sub.Plan.CrawlMaxDepth,
		MaxConcurrent:          sub.Plan.MaxConcurrentCrawl,
		IsDefaultPlan:          sub.Plan.IsDefault,
		AllowedProxyCategories: allowed,
	}, nil
}
