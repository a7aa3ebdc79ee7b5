package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ConcurrencyWindow bounds how far back open jobs count toward the
// concurrency limit. Jobs stuck in new or running for longer stop counting.
const ConcurrencyWindow = 2 * time.Hour

type CrawlAdmission struct {
	TeamID  uuid.UUID
	URL     string
	Options models.CrawlOptions
}

type BatchCrawlAdmission struct {
	TeamID  uuid.UUID
	URLs    []string
	Options models.CrawlOptions
}

type SearchAdmission struct {
	TeamID      uuid.UUID
	Query       string
	Options     models.SearchOptions
	ResultLimit int
}

type SitemapAdmission struct {
	TeamID  uuid.UUID
	URL     string
	Options models.SitemapOptions
}

// Controller admits or rejects new jobs. Checks run in a fixed order and the
// first failure wins: entitlements, concurrency, plan credit, daily credit,
// depth, proxy. Admission never deducts credits.
type Controller struct {
	repo     Repository
	resolver *Resolver
	options
}

func NewController(repo Repository, resolver *Resolver, opts ...Option) *Controller {
	return &Controller{
		repo:     repo,
		resolver: resolver,
		options:  applyOptions(opts),
	}
}

func (c *Controller) AdmitCrawl(ctx context.Context, req CrawlAdmission) (*models.CrawlRequest, error) {
	spider := req.Options.SpiderOptions
	var job *models.CrawlRequest

	err := c.admit(ctx, models.JobKindCrawl, req.TeamID, func(repo Repository, limits *Limits) error {
		if err := checkCredit(models.JobKindCrawl, limits, CrawlCost(spider.PageLimit)); err != nil {
			return err
		}
		if limits.MaxDepth != Unlimited && spider.MaxDepth > limits.MaxDepth {
			return depthLimitExceeded(limits.MaxDepth)
		}
		if err := CheckProxyAccess(ctx, repo, req.TeamID, spider.ProxyServer, limits); err != nil {
			return err
		}

		job = &models.CrawlRequest{
			ID:        uuid.New(),
			TeamID:    req.TeamID,
			URLs:      datatypes.NewJSONSlice([]string{req.URL}),
			CrawlType: models.CrawlTypeSingle,
			Status:    models.JobStatusNew,
			Options:   datatypes.NewJSONType(req.Options),
		}
		return repo.CreateCrawlRequest(ctx, job)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// AdmitBatchCrawl admits a crawl of an explicit URL list. The stored job is
// forced to depth 0 with one page per URL, so no depth check applies.
func (c *Controller) AdmitBatchCrawl(ctx context.Context, req BatchCrawlAdmission) (*models.CrawlRequest, error) {
	var job *models.CrawlRequest

	err := c.admit(ctx, models.JobKindCrawl, req.TeamID, func(repo Repository, limits *Limits) error {
		if err := checkCredit(models.JobKindCrawl, limits, BatchCrawlCost(len(req.URLs))); err != nil {
			return err
		}

		opts := req.Options
		opts.SpiderOptions.MaxDepth = 0
		opts.SpiderOptions.PageLimit = len(req.URLs)

		if err := CheckProxyAccess(ctx, repo, req.TeamID, opts.SpiderOptions.ProxyServer, limits); err != nil {
			return err
		}

		job = &models.CrawlRequest{
			ID:        uuid.New(),
			TeamID:    req.TeamID,
			URLs:      datatypes.NewJSONSlice(req.URLs),
			CrawlType: models.CrawlTypeBatch,
			Status:    models.JobStatusNew,
			Options:   datatypes.NewJSONType(opts),
		}
		return repo.CreateCrawlRequest(ctx, job)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (c *Controller) AdmitSearch(ctx context.Context, req SearchAdmission) (*models.SearchRequest, error) {
	var job *models.SearchRequest

	err := c.admit(ctx, models.JobKindSearch, req.TeamID, func(repo Repository, limits *Limits) error {
		cost := SearchCost(req.ResultLimit, req.Options.Depth)
		if err := checkCredit(models.JobKindSearch, limits, cost); err != nil {
			return err
		}

		job = &models.SearchRequest{
			ID:            uuid.New(),
			TeamID:        req.TeamID,
			Query:         req.Query,
			SearchOptions: datatypes.NewJSONType(req.Options),
			ResultLimit:   req.ResultLimit,
			Status:        models.JobStatusNew,
		}
		return repo.CreateSearchRequest(ctx, job)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (c *Controller) AdmitSitemap(ctx context.Context, req SitemapAdmission) (*models.SitemapRequest, error) {
	var job *models.SitemapRequest

	err := c.admit(ctx, models.JobKindSitemap, req.TeamID, func(repo Repository, limits *Limits) error {
		if err := checkCredit(models.JobKindSitemap, limits, SitemapCost(req.Options.IgnoreSitemapXML)); err != nil {
			return err
		}
		if err := CheckProxyAccess(ctx, repo, req.TeamID, req.Options.ProxyServer, limits); err != nil {
			return err
		}

		job = &models.SitemapRequest{
			ID:      uuid.New(),
			TeamID:  req.TeamID,
			URL:     req.URL,
			Options: datatypes.NewJSONType(req.Options),
			Status:  models.JobStatusNew,
		}
		return repo.CreateSitemapRequest(ctx, job)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// admit resolves limits, enforces concurrency and then hands over to the
// kind-specific checks. With serialization on, the whole sequence including
// the insert holds the team lock.
func (c *Controller) admit(ctx context.Context, kind models.JobKind, teamID uuid.UUID, fn func(Repository, *Limits) error) error {
	start := c.now()

	run := func(repo Repository) error {
		limits, err := c.resolver.Resolve(ctx, repo, teamID)
		if err != nil {
			return err
		}
		if err := c.checkConcurrency(ctx, repo, kind, teamID, limits); err != nil {
			return err
		}
		return fn(repo, limits)
	}

	var err error
	if c.serialize {
		err = c.repo.WithinTeam(ctx, teamID, run)
	} else {
		err = run(c.repo)
	}

	metrics.AdmissionDuration.WithLabelValues(string(kind)).Observe(c.now().Sub(start).Seconds())
	c.record(kind, teamID, err)
	return err
}

func (c *Controller) checkConcurrency(ctx context.Context, repo Repository, kind models.JobKind, teamID uuid.UUID, limits *Limits) error {
	if limits.MaxConcurrent == Unlimited {
		return nil
	}
	open, err := repo.CountOpenJobs(ctx, kind, teamID, c.now().Add(-ConcurrencyWindow))
	if err != nil {
		return fmt.Errorf("count open %s jobs: %w", kind, err)
	}
	if open >= int64(limits.MaxConcurrent) {
		return concurrencyLimitExceeded(limits.MaxConcurrent)
	}
	return nil
}

func checkCredit(kind models.JobKind, limits *Limits, cost int) error {
	if limits.RemainPageCredit != Unlimited && cost > limits.RemainPageCredit {
		return insufficientCredit(kind, ScopePlan, limits.RemainPageCredit)
	}
	if limits.RemainDailyPageCredit != Unlimited && cost > limits.RemainDailyPageCredit {
		return insufficientCredit(kind, ScopeDaily, limits.RemainDailyPageCredit)
	}
	return nil
}

func (c *Controller) record(kind models.JobKind, teamID uuid.UUID, err error) {
	var qe *Error
	switch {
	case err == nil:
		metrics.AdmissionsTotal.WithLabelValues(string(kind), "admitted").Inc()
	case errors.As(err, &qe):
		metrics.AdmissionsTotal.WithLabelValues(string(kind), string(qe.Code)).Inc()
		c.logger.Info("admission rejected", "team_id", teamID.String(), "kind", string(kind), "code", string(qe.Code))
	default:
		metrics.AdmissionsTotal.WithLabelValues(string(kind), "error").Inc()
		c.logger.Error("admission failed", "team_id", teamID.String(), "kind", string(kind), "action", "admit", "error", err)
	}
}
