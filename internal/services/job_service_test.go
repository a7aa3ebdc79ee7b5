package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota/quotatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func expectJob(mock sqlmock.Sqlmock, table string, id, team uuid.UUID, status models.JobStatus) {
	mock.ExpectQuery(`SELECT "id","team_id","status" FROM "` + table + `" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_id", "status"}).
			AddRow(id.String(), team.String(), string(status)))
}

func TestCancelRunningJob(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewJobService(db, nil)
	team, id := uuid.New(), uuid.New()

	expectJob(mock, "crawl_requests", id, team, models.JobStatusRunning)
	mock.ExpectExec(`UPDATE "crawl_requests" SET "status"=\$1,"updated_at"=\$2 WHERE id = \$3 AND status = \$4`).
		WithArgs(models.JobStatusCanceling, sqlmock.AnyArg(), id, models.JobStatusRunning).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Cancel(context.Background(), models.JobKindCrawl, team, id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRejectsFinishedJob(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewJobService(db, nil)
	team, id := uuid.New(), uuid.New()

	expectJob(mock, "sitemap_requests", id, team, models.JobStatusFinished)

	err := svc.Cancel(context.Background(), models.JobKindSitemap, team, id)
	require.ErrorIs(t, err, quota.ErrInvalidState)
	assert.Equal(t, "Only running sitemap requests can be deleted", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet(), "no update is issued")
}

func TestCancelLosesRace(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewJobService(db, nil)
	team, id := uuid.New(), uuid.New()

	expectJob(mock, "search_requests", id, team, models.JobStatusRunning)
	mock.ExpectExec(`UPDATE "search_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Cancel(context.Background(), models.JobKindSearch, team, id)
	require.ErrorIs(t, err, quota.ErrInvalidState)
	assert.Equal(t, "Only running search requests can be deleted", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelUnknownJob(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewJobService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "crawl_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_id", "status"}))

	err := svc.Cancel(context.Background(), models.JobKindCrawl, uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusRejectsUnknownKind(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewJobService(db, nil)

	_, err := svc.Status(context.Background(), models.JobKind("video"), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestReportStatus(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewJobService(db, nil)
	team, id := uuid.New(), uuid.New()
	duration := 42

	expectJob(mock, "search_requests", id, team, models.JobStatusRunning)
	mock.ExpectExec(`UPDATE "search_requests" SET "duration_seconds"=\$1,"result"=\$2,"status"=\$3,"updated_at"=\$4 WHERE id = \$5 AND status = \$6`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.ReportStatus(context.Background(), models.JobKindSearch, id, &dto.JobStatusReport{
		Status:   models.JobStatusFinished,
		Duration: &duration,
		Result:   []byte(`{"results":[]}`),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStatusInvalidTransition(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewJobService(db, nil)
	team, id := uuid.New(), uuid.New()

	expectJob(mock, "crawl_requests", id, team, models.JobStatusFinished)

	err := svc.ReportStatus(context.Background(), models.JobKindCrawl, id, &dto.JobStatusReport{
		Status: models.JobStatusRunning,
	})
	require.ErrorIs(t, err, quota.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStatusChangedConcurrently(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewJobService(db, nil)
	team, id := uuid.New(), uuid.New()

	expectJob(mock, "crawl_requests", id, team, models.JobStatusRunning)
	mock.ExpectExec(`UPDATE "crawl_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.ReportStatus(context.Background(), models.JobKindCrawl, id, &dto.JobStatusReport{
		Status: models.JobStatusFailed,
	})
	require.ErrorIs(t, err, ErrStatusChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordUsageChargesLedger(t *testing.T) {
	db, mock := newMockDB(t)
	repo := quotaRepoWithSubscription(t)
	svc := NewJobService(db, quota.NewLedger(repo.repo, quota.ModeMetered))
	id := uuid.New()

	expectJob(mock, "crawl_requests", id, repo.team, models.JobStatusRunning)

	err := svc.RecordUsage(context.Background(), &dto.UsageReportRequest{
		TeamID:   repo.team,
		Kind:     models.JobKindCrawl,
		ObjectID: id,
		Credits:  7,
	})
	require.NoError(t, err)
	assert.Equal(t, 93, repo.sub.RemainPageCredit)
	require.Len(t, repo.repo.Usage, 1)
	assert.Equal(t, id, repo.repo.Usage[0].ObjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordUsageForeignJob(t *testing.T) {
	db, mock := newMockDB(t)
	repo := quotaRepoWithSubscription(t)
	svc := NewJobService(db, quota.NewLedger(repo.repo, quota.ModeMetered))

	mock.ExpectQuery(`SELECT (.+) FROM "crawl_requests" WHERE id = (.+) AND team_id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_id", "status"}))

	err := svc.RecordUsage(context.Background(), &dto.UsageReportRequest{
		TeamID:   repo.team,
		Kind:     models.JobKindCrawl,
		ObjectID: uuid.New(),
		Credits:  7,
	})
	require.ErrorIs(t, err, ErrJobNotFound)
	assert.Equal(t, 100, repo.sub.RemainPageCredit)
	assert.Empty(t, repo.repo.Usage)
}

type subscribedRepo struct {
	repo *quotatest.Repository
	team uuid.UUID
	sub  *models.Subscription
}

func quotaRepoWithSubscription(t *testing.T) subscribedRepo {
	t.Helper()
	repo := quotatest.New()
	team := uuid.New()
	plan := repo.AddPlan(&models.Plan{Name: "Free", PageCredit: 100, DailyPageCredit: 50, IsActive: true})
	return subscribedRepo{repo: repo, team: team, sub: repo.AddSubscription(team, plan, 100, 50)}
}

func TestUsageSummaryCountsAllRequests(t *testing.T) {
	db, mock := newMockDB(t)
	mock.MatchExpectationsInOrder(false)
	svc := NewJobService(db, nil)
	team := uuid.New()

	for table, n := range map[string]int{"crawl_requests": 4, "search_requests": 2, "sitemap_requests": 1} {
		mock.ExpectQuery(`SELECT count\(\*\) FROM "` + table + `" WHERE team_id = \$1$`).
			WithArgs(team).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
	}
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(page_credits\), 0\) FROM "usage_histories" WHERE team_id = \$1$`).
		WithArgs(team).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(57))

	out, err := svc.UsageSummary(context.Background(), team)
	require.NoError(t, err)
	assert.Equal(t, 30, out.PeriodDays)
	assert.Equal(t, int64(4), out.CrawlRequests)
	assert.Equal(t, int64(2), out.SearchRequests)
	assert.Equal(t, int64(1), out.SitemapRequests)
	assert.Equal(t, int64(7), out.TotalRequests)
	assert.Equal(t, int64(57), out.CreditsConsumed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageSummaryFailsOnQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.MatchExpectationsInOrder(false)
	svc := NewJobService(db, nil)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "crawl_requests"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "search_requests"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "sitemap_requests"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT COALESCE`).WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0))

	_, err := svc.UsageSummary(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count crawl requests")
}
