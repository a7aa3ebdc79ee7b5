package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/tenant"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrJobNotFound    = errors.New("request not found")
	ErrResultNotFound = errors.New("crawl result not found")
	ErrStatusChanged  = errors.New("request status changed concurrently")
	ErrUnknownKind    = errors.New("unknown request kind")
)

const usagePeriodDays = 30

// JobService reads jobs for clients, applies cancellations and takes status
// and usage reports from the execution backend. Creating jobs goes through
// quota.Controller.
type JobService struct {
	db     *gorm.DB
	ledger *quota.Ledger
}

func NewJobService(db *gorm.DB, ledger *quota.Ledger) *JobService {
	return &JobService{db: db, ledger: ledger}
}

type jobRow struct {
	ID     uuid.UUID
	TeamID uuid.UUID
	Status models.JobStatus
}

func (s *JobService) loadJob(ctx context.Context, kind models.JobKind, teamID *uuid.UUID, id uuid.UUID) (*jobRow, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	q := s.db.WithContext(ctx).Table(kind.Table()).Select("id", "team_id", "status").Where("id = ?", id)
	if teamID != nil {
		q = q.Scopes(tenant.ForTeam(*teamID))
	}
	var row jobRow
	if err := q.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *JobService) Status(ctx context.Context, kind models.JobKind, teamID, id uuid.UUID) (models.JobStatus, error) {
	row, err := s.loadJob(ctx, kind, &teamID, id)
	if err != nil {
		return "", err
	}
	return row.Status, nil
}

// Cancel moves a running job to canceling. The update is conditional on the
// status read, so a job that finished in between is reported as not running.
func (s *JobService) Cancel(ctx context.Context, kind models.JobKind, teamID, id uuid.UUID) error {
	row, err := s.loadJob(ctx, kind, &teamID, id)
	if err != nil {
		return err
	}

	next, err := quota.RequestCancel(kind, row.Status)
	if err != nil {
		metrics.JobCancellationsTotal.WithLabelValues(string(kind), "rejected").Inc()
		return err
	}

	res := s.db.WithContext(ctx).Table(kind.Table()).
		Where("id = ? AND status = ?", id, row.Status).
		Updates(map[string]interface{}{"status": next, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		metrics.JobCancellationsTotal.WithLabelValues(string(kind), "rejected").Inc()
		return quota.NotRunning(kind)
	}

	metrics.JobCancellationsTotal.WithLabelValues(string(kind), "accepted").Inc()
	slog.Info("cancellation requested", "team_id", teamID.String(), "kind", string(kind), "job_id", id.String())
	return nil
}

func (s *JobService) ListCrawls(ctx context.Context, teamID uuid.UUID) ([]dto.CrawlResponse, error) {
	var jobs []models.CrawlRequest
	err := s.db.WithContext(ctx).Scopes(tenant.ForTeam(teamID)).Order("created_at DESC").Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(jobs))
	for i := range jobs {
		ids[i] = jobs[i].ID
	}
	counts, err := s.documentCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]dto.CrawlResponse, len(jobs))
	for i := range jobs {
		out[i] = dto.NewCrawlResponse(&jobs[i], counts[jobs[i].ID])
	}
	return out, nil
}

func (s *JobService) GetCrawl(ctx context.Context, teamID, id uuid.UUID) (*dto.CrawlResponse, error) {
	job, err := s.crawl(ctx, teamID, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.documentCounts(ctx, []uuid.UUID{job.ID})
	if err != nil {
		return nil, err
	}
	resp := dto.NewCrawlResponse(job, counts[job.ID])
	return &resp, nil
}

func (s *JobService) crawl(ctx context.Context, teamID, id uuid.UUID) (*models.CrawlRequest, error) {
	var job models.CrawlRequest
	if err := s.db.WithContext(ctx).Scopes(tenant.ForTeam(teamID)).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (s *JobService) documentCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []struct {
		RequestID uuid.UUID
		N         int64
	}
	err := s.db.WithContext(ctx).Model(&models.CrawlResult{}).
		Select("request_id, count(*) AS n").
		Where("request_id IN ?", ids).
		Group("request_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.RequestID] = r.N
	}
	return counts, nil
}

func (s *JobService) ListCrawlResults(ctx context.Context, teamID, id uuid.UUID) ([]models.CrawlResult, error) {
	job, err := s.crawl(ctx, teamID, id)
	if err != nil {
		return nil, err
	}
	var results []models.CrawlResult
	err = s.db.WithContext(ctx).Where("request_id = ?", job.ID).Order("created_at ASC").Find(&results).Error
	return results, err
}

func (s *JobService) GetCrawlResult(ctx context.Context, teamID, id, resultID uuid.UUID) (*models.CrawlResult, error) {
	job, err := s.crawl(ctx, teamID, id)
	if err != nil {
		return nil, err
	}
	var result models.CrawlResult
	if err := s.db.WithContext(ctx).Where("request_id = ?", job.ID).First(&result, "id = ?", resultID).Error; err != nil {
		return nil, ErrResultNotFound
	}
	return &result, nil
}

func (s *JobService) ListSearches(ctx context.Context, teamID uuid.UUID) ([]models.SearchRequest, error) {
	var jobs []models.SearchRequest
	err := s.db.WithContext(ctx).Scopes(tenant.ForTeam(teamID)).Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

func (s *JobService) GetSearch(ctx context.Context, teamID, id uuid.UUID) (*models.SearchRequest, error) {
	var job models.SearchRequest
	if err := s.db.WithContext(ctx).Scopes(tenant.ForTeam(teamID)).First(&job, "id = ?", id).Error; err != nil {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

func (s *JobService) ListSitemaps(ctx context.Context, teamID uuid.UUID) ([]models.SitemapRequest, error) {
	var jobs []models.SitemapRequest
	err := s.db.WithContext(ctx).Scopes(tenant.ForTeam(teamID)).Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

func (s *JobService) GetSitemap(ctx context.Context, teamID, id uuid.UUID) (*models.SitemapRequest, error) {
	var job models.SitemapRequest
	if err := s.db.WithContext(ctx).Scopes(tenant.ForTeam(teamID)).First(&job, "id = ?", id).Error; err != nil {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

// UsageSummary counts all of the team's requests and consumed credits.
// PeriodDays is the billing period length shown next to the totals; the
// counts themselves are not windowed.
func (s *JobService) UsageSummary(ctx context.Context, teamID uuid.UUID) (*dto.UsageSummaryResponse, error) {
	out := &dto.UsageSummaryResponse{PeriodDays: usagePeriodDays}

	counts := []struct {
		kind models.JobKind
		dst  *int64
	}{
		{models.JobKindCrawl, &out.CrawlRequests},
		{models.JobKindSearch, &out.SearchRequests},
		{models.JobKindSitemap, &out.SitemapRequests},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range counts {
		g.Go(func() error {
			err := s.db.WithContext(gctx).Table(c.kind.Table()).
				Scopes(tenant.ForTeam(teamID)).
				Count(c.dst).Error
			if err != nil {
				return fmt.Errorf("count %s requests: %w", c.kind, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		err := s.db.WithContext(gctx).Model(&models.UsageHistory{}).
			Scopes(tenant.ForTeam(teamID)).
			Select("COALESCE(SUM(page_credits), 0)").
			Scan(&out.CreditsConsumed).Error
		if err != nil {
			return fmt.Errorf("sum credits: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, c := range counts {
		out.TotalRequests += *c.dst
	}
	return out, nil
}

// ReportStatus applies a status change sent by the execution backend.
func (s *JobService) ReportStatus(ctx context.Context, kind models.JobKind, id uuid.UUID, report *dto.JobStatusReport) error {
	row, err := s.loadJob(ctx, kind, nil, id)
	if err != nil {
		return err
	}
	if err := quota.CheckTransition(kind, row.Status, report.Status); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"status":     report.Status,
		"updated_at": time.Now(),
	}
	if report.Duration != nil {
		updates["duration_seconds"] = *report.Duration
	}
	if len(report.Result) > 0 && kind != models.JobKindCrawl {
		updates["result"] = datatypes.JSON(report.Result)
	}

	res := s.db.WithContext(ctx).Table(kind.Table()).
		Where("id = ? AND status = ?", id, row.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	slog.Info("job status reported", "team_id", row.TeamID.String(), "kind", string(kind), "job_id", id.String(), "from", string(row.Status), "to", string(report.Status))
	return nil
}

func (s *JobService) AddCrawlResult(ctx context.Context, id uuid.UUID, report *dto.CrawlResultReport) (*models.CrawlResult, error) {
	if _, err := s.loadJob(ctx, models.JobKindCrawl, nil, id); err != nil {
		return nil, err
	}
	result := models.CrawlResult{
		ID:        uuid.New(),
		RequestID: id,
		URL:       report.URL,
		Result:    datatypes.JSON(report.Result),
	}
	if err := s.db.WithContext(ctx).Create(&result).Error; err != nil {
		return nil, fmt.Errorf("store crawl result: %w", err)
	}
	return &result, nil
}

// RecordUsage forwards a usage report to the ledger after checking the job
// belongs to the team.
func (s *JobService) RecordUsage(ctx context.Context, req *dto.UsageReportRequest) error {
	if _, err := s.loadJob(ctx, req.Kind, &req.TeamID, req.ObjectID); err != nil {
		return err
	}
	return s.ledger.RecordUsage(ctx, quota.UsageReport{
		TeamID:      req.TeamID,
		Kind:        req.Kind,
		ObjectID:    req.ObjectID,
		RequestedBy: req.RequestedBy,
		Credits:     req.Credits,
	})
}
