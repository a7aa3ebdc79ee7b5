package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotaRepository implements quota.Repository on Postgres.
type QuotaRepository struct {
	db *gorm.DB
}

var _ quota.Repository = (*QuotaRepository)(nil)

func NewQuotaRepository(db *gorm.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

func (r *QuotaRepository) ActiveSubscription(ctx context.Context, teamID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Scopes(tenant.ForTeam(teamID)).
		Where("status = ?", models.SubscriptionStatusActive).
		Order("created_at DESC").
		Take(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *QuotaRepository) FindActivePlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).
		Preload("Features", func(db *gorm.DB) *gorm.DB {
			return db.Order(`"order" ASC`)
		}).
		Where("id = ? AND is_active = ?", planID, true).
		Take(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *QuotaRepository) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(sub).Error
}

func (r *QuotaRepository) UpdateSubscription(ctx context.Context, sub *models.Subscription, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	cols := append(append([]string{}, columns...), "updated_at")
	return r.db.WithContext(ctx).Model(sub).Select(cols).Updates(sub).Error
}

func (r *QuotaRepository) ResetDailyCredits(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET remain_daily_page_credit = plans.daily_page_credit, updated_at = ?
		FROM plans WHERE subscriptions.plan_id = plans.id AND subscriptions.status = ?`,
		time.Now(), models.SubscriptionStatusActive,
	)
	return res.RowsAffected, res.Error
}

func (r *QuotaRepository) CreateUsage(ctx context.Context, usage *models.UsageHistory) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

func (r *QuotaRepository) FindProxy(ctx context.Context, teamID uuid.UUID, slug string) (*models.ProxyServer, error) {
	var proxy models.ProxyServer
	err := r.db.WithContext(ctx).
		Where("slug = ? AND (team_id = ? OR team_id IS NULL)", slug, teamID).
		Order("team_id IS NULL").
		Take(&proxy).Error
	if err != nil {
		return nil, err
	}
	return &proxy, nil
}

func (r *QuotaRepository) CountOpenJobs(ctx context.Context, kind models.JobKind, teamID uuid.UUID, since time.Time) (int64, error) {
	model, err := jobModel(kind)
	if err != nil {
		return 0, err
	}
	var n int64
	err = r.db.WithContext(ctx).
		Model(model).
		Scopes(tenant.ForTeam(teamID)).
		Where("status IN ?", models.OpenJobStatuses()).
		Where("created_at >= ?", since).
		Count(&n).Error
	return n, err
}

func (r *QuotaRepository) CreateCrawlRequest(ctx context.Context, req *models.CrawlRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *QuotaRepository) CreateSearchRequest(ctx context.Context, req *models.SearchRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *QuotaRepository) CreateSitemapRequest(ctx context.Context, req *models.SitemapRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// WithinTeam opens a transaction and locks the team row for its duration.
// Concurrent admissions and subscription changes for the same team queue
// behind the lock; other teams are unaffected.
func (r *QuotaRepository) WithinTeam(ctx context.Context, teamID uuid.UUID, fn func(quota.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var team models.Team
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", teamID).
			Take(&team).Error
		if err != nil {
			return fmt.Errorf("lock team %s: %w", teamID, err)
		}
		return fn(&QuotaRepository{db: tx})
	})
}

func jobModel(kind models.JobKind) (any, error) {
	switch kind {
	case models.JobKindCrawl:
		return &models.CrawlRequest{}, nil
	case models.JobKindSearch:
		return &models.SearchRequest{}, nil
	case models.JobKindSitemap:
		return &models.SitemapRequest{}, nil
	}
	return nil, fmt.Errorf("unknown job kind %q", kind)
}
