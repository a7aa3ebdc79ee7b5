package quota

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/google/uuid"
)

// Repository is the persistence the quota engine needs. Lookups that find
// nothing return gorm.ErrRecordNotFound.
type Repository interface {
	// ActiveSubscription returns the most recently created active
	// subscription of the team with its Plan loaded.
	ActiveSubscription(ctx context.Context, teamID uuid.UUID) (*models.Subscription, error)
	FindActivePlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error)
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	// UpdateSubscription writes only the named columns.
	UpdateSubscription(ctx context.Context, sub *models.Subscription, columns ...string) error
	// ResetDailyCredits refills the daily counter of every active
	// subscription from its plan and returns the number of rows touched.
	ResetDailyCredits(ctx context.Context) (int64, error)

	CreateUsage(ctx context.Context, usage *models.UsageHistory) error

	// FindProxy looks a slug up among the team's proxies and the global
	// ones. A team proxy wins over a global proxy with the same slug.
	FindProxy(ctx context.Context, teamID uuid.UUID, slug string) (*models.ProxyServer, error)

	// CountOpenJobs counts jobs of one kind in state new or running created
	// at or after since.
	CountOpenJobs(ctx context.Context, kind models.JobKind, teamID uuid.UUID, since time.Time) (int64, error)
	CreateCrawlRequest(ctx context.Context, req *models.CrawlRequest) error
	CreateSearchRequest(ctx context.Context, req *models.SearchRequest) error
	CreateSitemapRequest(ctx context.Context, req *models.SitemapRequest) error

	// WithinTeam runs fn with exclusive access to the team's quota state.
	// All reads and writes made through the Repository passed to fn commit
	// or roll back together.
	WithinTeam(ctx context.Context, teamID uuid.UUID, fn func(Repository) error) error
}
