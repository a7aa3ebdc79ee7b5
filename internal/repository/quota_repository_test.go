package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepo(t *testing.T) (*QuotaRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return NewQuotaRepository(db), mock
}

func TestActiveSubscriptionLoadsPlan(t *testing.T) {
	repo, mock := newMockRepo(t)
	teamID := uuid.New()
	subID := uuid.New()
	planID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "subscriptions" WHERE status = (.+) AND team_id = (.+) ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_id", "plan_id", "remain_page_credit", "remain_daily_page_credit", "status"}).
			AddRow(subID.String(), teamID.String(), planID.String(), 500, 50, "active"))
	mock.ExpectQuery(`SELECT (.+) FROM "plans" WHERE "plans"."id" = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "crawl_max_depth", "max_concurrent_crawl", "is_default"}).
			AddRow(planID.String(), "Pro", 5, 3, false))

	sub, err := repo.ActiveSubscription(context.Background(), teamID)
	require.NoError(t, err)
	assert.Equal(t, subID, sub.ID)
	assert.Equal(t, 500, sub.RemainPageCredit)
	assert.Equal(t, 50, sub.RemainDailyPageCredit)
	assert.Equal(t, "Pro", sub.Plan.Name)
	assert.Equal(t, 5, sub.Plan.CrawlMaxDepth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveSubscriptionNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM "subscriptions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.ActiveSubscription(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindProxyPrefersTeamProxy(t *testing.T) {
	repo, mock := newMockRepo(t)
	teamID := uuid.New()
	proxyID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "proxy_servers" WHERE slug = (.+) AND \(team_id = (.+) OR team_id IS NULL\) ORDER BY team_id IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "category", "team_id"}).
			AddRow(proxyID.String(), "residential", "team", teamID.String()))

	proxy, err := repo.FindProxy(context.Background(), teamID, "residential")
	require.NoError(t, err)
	assert.Equal(t, proxyID, proxy.ID)
	assert.Equal(t, models.ProxyCategoryTeam, proxy.Category)
	require.NotNil(t, proxy.TeamID)
	assert.Equal(t, teamID, *proxy.TeamID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountOpenJobs(t *testing.T) {
	repo, mock := newMockRepo(t)
	since := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		kind  models.JobKind
		table string
	}{
		{models.JobKindCrawl, "crawl_requests"},
		{models.JobKindSearch, "search_requests"},
		{models.JobKindSitemap, "sitemap_requests"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			mock.ExpectQuery(`SELECT count\(\*\) FROM "` + tt.table + `" WHERE status IN (.+) AND created_at >= (.+) AND team_id = `).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

			n, err := repo.CountOpenJobs(context.Background(), tt.kind, uuid.New(), since)
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountOpenJobsUnknownKind(t *testing.T) {
	repo, mock := newMockRepo(t)

	_, err := repo.CountOpenJobs(context.Background(), models.JobKind("scrape"), uuid.New(), time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSubscriptionWritesNamedColumns(t *testing.T) {
	repo, mock := newMockRepo(t)
	sub := &models.Subscription{ID: uuid.New(), RemainPageCredit: 10, RemainDailyPageCredit: 0}

	mock.ExpectExec(`UPDATE "subscriptions" SET "remain_page_credit"=(.+),"remain_daily_page_credit"=(.+),"updated_at"=(.+) WHERE "id" = `).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateSubscription(context.Background(), sub, "remain_page_credit", "remain_daily_page_credit")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSubscriptionWithoutColumnsIsNoop(t *testing.T) {
	repo, mock := newMockRepo(t)

	require.NoError(t, repo.UpdateSubscription(context.Background(), &models.Subscription{ID: uuid.New()}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetDailyCredits(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE subscriptions SET remain_daily_page_credit = plans.daily_page_credit`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ResetDailyCredits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTeamLocksTeamRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	teamID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "teams" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(teamID.String()))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "crawl_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	err := repo.WithinTeam(context.Background(), teamID, func(tx quota.Repository) error {
		_, err := tx.CountOpenJobs(context.Background(), models.JobKindCrawl, teamID, time.Now())
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTeamRollsBackOnError(t *testing.T) {
	repo, mock := newMockRepo(t)
	teamID := uuid.New()
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "teams" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(teamID.String()))
	mock.ExpectRollback()

	err := repo.WithinTeam(context.Background(), teamID, func(quota.Repository) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTeamUnknownTeam(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "teams"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	called := false
	err := repo.WithinTeam(context.Background(), uuid.New(), func(quota.Repository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}
