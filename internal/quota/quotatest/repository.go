// Package quotatest provides an in-memory quota.Repository for tests.
package quotatest

import (
	"context"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository keeps everything in slices guarded by one mutex. WithinTeam
// holds a per-team lock, which gives the same mutual exclusion as the
// row lock taken by the GORM implementation.
type Repository struct {
	mu    sync.Mutex
	teams sync.Map

	Plans         []*models.Plan
	Subscriptions []*models.Subscription
	Proxies       []*models.ProxyServer
	Crawls        []*models.CrawlRequest
	Searches      []*models.SearchRequest
	Sitemaps      []*models.SitemapRequest
	Usage         []*models.UsageHistory

	// Now stamps CreatedAt on inserted rows. Defaults to time.Now.
	Now func() time.Time
	// Err, when set, is returned by every call.
	Err error
	// AfterRead, when set, runs after ActiveSubscription and CountOpenJobs
	// return, outside the repository lock. Tests use it to interleave
	// check-then-write sequences.
	AfterRead func(op string)

	seq int
}

var _ quota.Repository = (*Repository)(nil)

func New() *Repository {
	return &Repository{Now: time.Now}
}

// stamp returns a creation time that is strictly increasing across calls so
// "latest" is well defined even when the clock does not move.
func (r *Repository) stamp() time.Time {
	r.seq++
	return r.Now().Add(time.Duration(r.seq) * time.Microsecond)
}

func (r *Repository) AddPlan(p *models.Plan) *models.Plan {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.Plans = append(r.Plans, p)
	return p
}

// AddSubscription seeds an active subscription on plan with the given
// counters.
func (r *Repository) AddSubscription(teamID uuid.UUID, plan *models.Plan, remain, remainDaily int) *models.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub := &models.Subscription{
		ID:                    uuid.New(),
		TeamID:                teamID,
		PlanID:                plan.ID,
		RemainPageCredit:      remain,
		RemainDailyPageCredit: remainDaily,
		Status:                models.SubscriptionStatusActive,
		CreatedAt:             r.stamp(),
	}
	r.Subscriptions = append(r.Subscriptions, sub)
	return sub
}

// AddProxy stores a proxy. A nil teamID makes it global.
func (r *Repository) AddProxy(teamID *uuid.UUID, slug string, category models.ProxyCategory) *models.ProxyServer {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &models.ProxyServer{
		ID:       uuid.New(),
		Name:     slug,
		Slug:     slug,
		Category: category,
		Host:     "127.0.0.1",
		Port:     8080,
		TeamID:   teamID,
	}
	r.Proxies = append(r.Proxies, p)
	return p
}

// AddCrawl stores a crawl job as is, keeping a preset CreatedAt.
func (r *Repository) AddCrawl(teamID uuid.UUID, status models.JobStatus, createdAt time.Time) *models.CrawlRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := &models.CrawlRequest{ID: uuid.New(), TeamID: teamID, Status: status, CreatedAt: createdAt}
	r.Crawls = append(r.Crawls, job)
	return job
}

// ActiveCount returns how many subscriptions of the team are active.
func (r *Repository) ActiveCount(teamID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.Subscriptions {
		if s.TeamID == teamID && s.IsActive() {
			n++
		}
	}
	return n
}

func (r *Repository) ActiveSubscription(_ context.Context, teamID uuid.UUID) (*models.Subscription, error) {
	sub, err := r.activeSubscription(teamID)
	r.afterRead("ActiveSubscription")
	return sub, err
}

func (r *Repository) afterRead(op string) {
	if r.AfterRead != nil {
		r.AfterRead(op)
	}
}

func (r *Repository) activeSubscription(teamID uuid.UUID) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	var latest *models.Subscription
	for _, s := range r.Subscriptions {
		if s.TeamID != teamID || !s.IsActive() {
			continue
		}
		if latest == nil || !s.CreatedAt.Before(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}

	out := *latest
	for _, p := range r.Plans {
		if p.ID == out.PlanID {
			out.Plan = *p
		}
	}
	return &out, nil
}

func (r *Repository) FindActivePlan(_ context.Context, planID uuid.UUID) (*models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, p := range r.Plans {
		if p.ID == planID && p.IsActive {
			out := *p
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Repository) CreateSubscription(_ context.Context, sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	stored := *sub
	stored.CreatedAt = r.stamp()
	stored.UpdatedAt = stored.CreatedAt
	sub.CreatedAt = stored.CreatedAt
	r.Subscriptions = append(r.Subscriptions, &stored)
	return nil
}

func (r *Repository) UpdateSubscription(_ context.Context, sub *models.Subscription, columns ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, s := range r.Subscriptions {
		if s.ID != sub.ID {
			continue
		}
		for _, col := range columns {
			switch col {
			case "status":
				s.Status = sub.Status
			case "cancel_at":
				s.CancelAt = sub.CancelAt
			case "remain_page_credit":
				s.RemainPageCredit = sub.RemainPageCredit
			case "remain_daily_page_credit":
				s.RemainDailyPageCredit = sub.RemainDailyPageCredit
			case "current_period_start_at":
				s.CurrentPeriodStartAt = sub.CurrentPeriodStartAt
			case "current_period_end_at":
				s.CurrentPeriodEndAt = sub.CurrentPeriodEndAt
			}
		}
		s.UpdatedAt = r.Now()
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *Repository) ResetDailyCredits(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var n int64
	for _, s := range r.Subscriptions {
		if !s.IsActive() {
			continue
		}
		for _, p := range r.Plans {
			if p.ID == s.PlanID {
				s.RemainDailyPageCredit = p.DailyPageCredit
				n++
			}
		}
	}
	return n, nil
}

func (r *Repository) CreateUsage(_ context.Context, usage *models.UsageHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	usage.CreatedAt = r.stamp()
	r.Usage = append(r.Usage, usage)
	return nil
}

func (r *Repository) FindProxy(_ context.Context, teamID uuid.UUID, slug string) (*models.ProxyServer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var global *models.ProxyServer
	for _, p := range r.Proxies {
		if p.Slug != slug {
			continue
		}
		if p.TeamID != nil && *p.TeamID == teamID {
			return p, nil
		}
		if p.TeamID == nil && global == nil {
			global = p
		}
	}
	if global == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return global, nil
}

func (r *Repository) CountOpenJobs(_ context.Context, kind models.JobKind, teamID uuid.UUID, since time.Time) (int64, error) {
	n, err := r.countOpenJobs(kind, teamID, since)
	r.afterRead("CountOpenJobs")
	return n, err
}

func (r *Repository) countOpenJobs(kind models.JobKind, teamID uuid.UUID, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}

	var n int64
	count := func(team uuid.UUID, status models.JobStatus, created time.Time) {
		if team == teamID && status.IsOpen() && !created.Before(since) {
			n++
		}
	}
	switch kind {
	case models.JobKindCrawl:
		for _, j := range r.Crawls {
			count(j.TeamID, j.Status, j.CreatedAt)
		}
	case models.JobKindSearch:
		for _, j := range r.Searches {
			count(j.TeamID, j.Status, j.CreatedAt)
		}
	case models.JobKindSitemap:
		for _, j := range r.Sitemaps {
			count(j.TeamID, j.Status, j.CreatedAt)
		}
	}
	return n, nil
}

func (r *Repository) CreateCrawlRequest(_ context.Context, req *models.CrawlRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	req.CreatedAt = r.Now()
	r.Crawls = append(r.Crawls, req)
	return nil
}

func (r *Repository) CreateSearchRequest(_ context.Context, req *models.SearchRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	req.CreatedAt = r.Now()
	r.Searches = append(r.Searches, req)
	return nil
}

func (r *Repository) CreateSitemapRequest(_ context.Context, req *models.SitemapRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	req.CreatedAt = r.Now()
	r.Sitemaps = append(r.Sitemaps, req)
	return nil
}

func (r *Repository) WithinTeam(_ context.Context, teamID uuid.UUID, fn func(quota.Repository) error) error {
	lock, _ := r.teams.LoadOrStore(teamID, &sync.Mutex{})
	m := lock.(*sync.Mutex)
	m.Lock()
	defer m.Unlock()
	return fn(r)
}
