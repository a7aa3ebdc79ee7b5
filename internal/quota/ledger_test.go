package quota_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota/quotatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(mode quota.Mode) (*quota.Ledger, *quotatest.Repository) {
	repo := quotatest.New()
	repo.Now = func() time.Time { return fixedNow }
	return quota.NewLedger(repo, mode, quota.WithClock(func() time.Time { return fixedNow })), repo
}

func TestLedgerStartDisabledWhenUnmetered(t *testing.T) {
	ledger, repo := newLedger(quota.ModeUnmetered)
	plan := repo.AddPlan(proPlan())

	_, err := ledger.Start(context.Background(), uuid.New(), plan.ID)
	require.ErrorIs(t, err, quota.ErrSubscriptionsDisabled)
	assert.Empty(t, repo.Subscriptions)
}

func TestLedgerStartUnknownPlan(t *testing.T) {
	ledger, repo := newLedger(quota.ModeMetered)
	inactive := proPlan()
	inactive.IsActive = false
	repo.AddPlan(inactive)

	_, err := ledger.Start(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, quota.ErrPlanNotFound)

	_, err = ledger.Start(context.Background(), uuid.New(), inactive.ID)
	require.ErrorIs(t, err, quota.ErrPlanNotFound)
}

func TestLedgerStartSeedsCounters(t *testing.T) {
	ledger, repo := newLedger(quota.ModeMetered)
	plan := repo.AddPlan(proPlan())
	team := uuid.New()

	res, err := ledger.Start(context.Background(), team, plan.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Replaced)

	sub := res.Subscription
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, 100000, sub.RemainPageCredit)
	assert.Equal(t, 5000, sub.RemainDailyPageCredit)
	assert.Equal(t, plan.ID, sub.PlanID)
	require.NotNil(t, sub.StartAt)
	assert.True(t, sub.StartAt.Equal(fixedNow))
	assert.Equal(t, 1, repo.ActiveCount(team))
}

func TestLedgerStartReplacesActive(t *testing.T) {
	ledger, repo := newLedger(quota.ModeMetered)
	free := repo.AddPlan(freePlan())
	pro := repo.AddPlan(proPlan())
	team := uuid.New()
	old := repo.AddSubscription(team, free, 3, 3)

	res, err := ledger.Start(context.Background(), team, pro.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Replaced)
	assert.Equal(t, old.ID, res.Replaced.ID)

	assert.Equal(t, models.SubscriptionStatusCanceled, old.Status)
	require.NotNil(t, old.CancelAt)
	assert.Equal(t, 1, repo.ActiveCount(team))

	limits, err := quota.NewResolver(quota.ModeMetered).Resolve(context.Background(), repo, team)
	require.NoError(t, err)
	assert.Equal(t, 100000, limits.RemainPageCredit)
}

func TestLedgerConcurrentStartsLeaveOneActive(t *testing.T) {
	ledger, repo := newLedger(quota.ModeMetered)
	plan := repo.AddPlan(proPlan())
	team := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Start(context.Background(), team, plan.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.ActiveCount(team))
	assert.Len(t, repo.Subscriptions, 10)
}

// rendezvous holds callers of op until n of them have arrived or wait
// elapses, so reads from concurrent goroutines happen before any write.
func rendezvous(op string, n int, wait time.Duration) func(string) {
	var (
		mu      sync.Mutex
		arrived int
	)
	all := make(chan struct{})
	return func(got string) {
		if got != op {
			return
		}
		mu.Lock()
		arrived++
		if arrived == n {
			close(all)
		}
		mu.Unlock()
		select {
		case <-all:
		case <-time.After(wait):
		}
	}
}

func TestLedgerStartRaceNeedsSerialization(t *testing.T) {
	tests := []struct {
		name      string
		serialize bool
		active    int
	}{
		{"unserialized starts both stay active", false, 2},
		{"serialized starts replace each other", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := quotatest.New()
			repo.Now = func() time.Time { return fixedNow }
			repo.AfterRead = rendezvous("ActiveSubscription", 2, 200*time.Millisecond)
			ledger := quota.NewLedger(repo, quota.ModeMetered,
				quota.WithClock(func() time.Time { return fixedNow }),
				quota.WithSerialization(tt.serialize))
			plan := repo.AddPlan(proPlan())
			team := uuid.New()

			var wg sync.WaitGroup
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := ledger.Start(context.Background(), team, plan.ID)
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			assert.Equal(t, tt.active, repo.ActiveCount(team))
			assert.Len(t, repo.Subscriptions, 2)
		})
	}
}

func TestLedgerCancel(t *testing.T) {
	ledger, repo := newLedger(quota.ModeMetered)
	team := uuid.New()

	require.NoError(t, ledger.Cancel(context.Background(), team), "cancel without subscription is a no-op")

	sub := repo.AddSubscription(team, repo.AddPlan(freePlan()), 10, 10)
	require.NoError(t, ledger.Cancel(context.Background(), team))
	assert.Equal(t, models.SubscriptionStatusCanceled, sub.Status)
	assert.Equal(t, 0, repo.ActiveCount(team))

	_, err := quota.NewResolver(quota.ModeMetered).Resolve(context.Background(), repo, team)
	require.ErrorIs(t, err, quota.ErrNoActiveSubscription)
}

func TestLedgerRenew(t *testing.T) {
	ledger, repo := newLedger(quota.ModeMetered)
	team := uuid.New()

	err := ledger.Renew(context.Background(), team)
	require.ErrorIs(t, err, quota.ErrNoActiveSubscription)

	sub := repo.AddSubscription(team, repo.AddPlan(proPlan()), 10, 10)
	scheduled := fixedNow.Add(24 * time.Hour)
	sub.CancelAt = &scheduled

	require.NoError(t, ledger.Renew(context.Background(), team))
	assert.Nil(t, sub.CancelAt)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
}

func TestLedgerRecordUsageMetered(t *testing.T) {
	ledger, repo := newLedger(quota.ModeMetered)
	team := uuid.New()
	sub := repo.AddSubscription(team, repo.AddPlan(freePlan()), 100, 20)
	job := uuid.New()

	err := ledger.RecordUsage(context.Background(), quota.UsageReport{
		TeamID:   team,
		Kind:     models.JobKindCrawl,
		ObjectID: job,
		Credits:  15,
	})
	require.NoError(t, err)
	assert.Equal(t, 85, sub.RemainPageCredit)
	assert.Equal(t, 5, sub.RemainDailyPageCredit)

	err = ledger.RecordUsage(context.Background(), quota.UsageReport{
		TeamID:   team,
		Kind:     models.JobKindCrawl,
		ObjectID: job,
		Credits:  15,
	})
	require.NoError(t, err)
	assert.Equal(t, 70, sub.RemainPageCredit)
	assert.Equal(t, 0, sub.RemainDailyPageCredit, "daily counter floors at zero")

	require.Len(t, repo.Usage, 2)
	assert.Equal(t, 15, repo.Usage[0].PageCredits)
	assert.Equal(t, models.JobKindCrawl, repo.Usage[0].ContentType)
	assert.Equal(t, job, repo.Usage[0].ObjectID)
}

func TestLedgerRecordUsageUnmetered(t *testing.T) {
	ledger, repo := newLedger(quota.ModeUnmetered)
	team := uuid.New()
	sub := repo.AddSubscription(team, repo.AddPlan(freePlan()), 100, 20)

	err := ledger.RecordUsage(context.Background(), quota.UsageReport{
		TeamID:   team,
		Kind:     models.JobKindSearch,
		ObjectID: uuid.New(),
		Credits:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, sub.RemainPageCredit)
	assert.Len(t, repo.Usage, 1)
}

func TestLedgerRecordUsageRejectsNegative(t *testing.T) {
	ledger, repo := newLedger(quota.ModeMetered)

	err := ledger.RecordUsage(context.Background(), quota.UsageReport{TeamID: uuid.New(), Credits: -1})
	require.Error(t, err)
	assert.Empty(t, repo.Usage)
}

func TestLedgerResetDailyCredits(t *testing.T) {
	ledger, repo := newLedger(quota.ModeMetered)
	plan := repo.AddPlan(freePlan())
	active := repo.AddSubscription(uuid.New(), plan, 900, 3)
	canceled := repo.AddSubscription(uuid.New(), plan, 900, 3)
	canceled.Status = models.SubscriptionStatusCanceled

	n, err := ledger.ResetDailyCredits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 100, active.RemainDailyPageCredit)
	assert.Equal(t, 3, canceled.RemainDailyPageCredit)
	assert.Equal(t, 900, active.RemainPageCredit)
}

func TestLedgerResetDailyCreditsUnmetered(t *testing.T) {
	ledger, repo := newLedger(quota.ModeUnmetered)
	sub := repo.AddSubscription(uuid.New(), repo.AddPlan(freePlan()), 900, 3)

	n, err := ledger.ResetDailyCredits(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 3, sub.RemainDailyPageCredit)
}
