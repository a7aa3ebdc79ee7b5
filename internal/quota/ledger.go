package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger owns the subscription lifecycle and the credit counters.
type Ledger struct {
	repo Repository
	mode Mode
	options
}

func NewLedger(repo Repository, mode Mode, opts ...Option) *Ledger {
	return &Ledger{
		repo:    repo,
		mode:    mode,
		options: applyOptions(opts),
	}
}

// StartResult reports the subscription that was opened and the one it
// replaced, if any.
type StartResult struct {
	Subscription *models.Subscription
	Plan         *models.Plan
	Replaced     *models.Subscription
}

// Start opens a new active subscription on planID for the team, canceling
// the current one. Counters are seeded from the plan.
func (l *Ledger) Start(ctx context.Context, teamID, planID uuid.UUID) (*StartResult, error) {
	if !l.mode.Metered() {
		return nil, ErrSubscriptionsDisabled
	}

	plan, err := l.repo.FindActivePlan(ctx, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}

	result := &StartResult{Plan: plan}
	err = l.within(ctx, teamID, func(repo Repository) error {
		now := l.now().UTC()

		current, err := repo.ActiveSubscription(ctx, teamID)
		switch {
		case err == nil:
			current.Status = models.SubscriptionStatusCanceled
			current.CancelAt = &now
			if err := repo.UpdateSubscription(ctx, current, "status", "cancel_at"); err != nil {
				return fmt.Errorf("cancel current subscription: %w", err)
			}
			result.Replaced = current
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("load active subscription: %w", err)
		}

		periodEnd := now.AddDate(0, 1, 0)
		sub := &models.Subscription{
			ID:                    uuid.New(),
			TeamID:                teamID,
			StripeSubscriptionID:  "local_" + uuid.NewString(),
			PlanID:                plan.ID,
			RemainPageCredit:      plan.PageCredit,
			RemainDailyPageCredit: plan.DailyPageCredit,
			StartAt:               &now,
			CurrentPeriodStartAt:  &now,
			CurrentPeriodEndAt:    &periodEnd,
			Status:                models.SubscriptionStatusActive,
		}
		if err := repo.CreateSubscription(ctx, sub); err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		sub.Plan = *plan
		result.Subscription = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SubscriptionsStartedTotal.WithLabelValues(plan.Name).Inc()
	l.logger.Info("subscription started", "team_id", teamID.String(), "plan", plan.Name, "replaced", result.Replaced != nil)
	return result, nil
}

// Cancel ends the team's active subscription. Canceling when nothing is
// active is not an error.
func (l *Ledger) Cancel(ctx context.Context, teamID uuid.UUID) error {
	return l.within(ctx, teamID, func(repo Repository) error {
		sub, err := repo.ActiveSubscription(ctx, teamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("load active subscription: %w", err)
		}
		now := l.now().UTC()
		sub.Status = models.SubscriptionStatusCanceled
		sub.CancelAt = &now
		return repo.UpdateSubscription(ctx, sub, "status", "cancel_at")
	})
}

// Renew withdraws a scheduled cancellation of the active subscription.
func (l *Ledger) Renew(ctx context.Context, teamID uuid.UUID) error {
	return l.within(ctx, teamID, func(repo Repository) error {
		sub, err := repo.ActiveSubscription(ctx, teamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoActiveSubscription
			}
			return fmt.Errorf("load active subscription: %w", err)
		}
		sub.Status = models.SubscriptionStatusActive
		sub.CancelAt = nil
		return repo.UpdateSubscription(ctx, sub, "status", "cancel_at")
	})
}

// UsageReport is what the execution backend sends when a job has consumed
// credits.
type UsageReport struct {
	TeamID      uuid.UUID
	Kind        models.JobKind
	ObjectID    uuid.UUID
	RequestedBy string
	Credits     int
}

// RecordUsage stores the report and, in metered mode, deducts the credits
// from both counters of the active subscription. Counters never go below
// zero.
func (l *Ledger) RecordUsage(ctx context.Context, report UsageReport) error {
	if report.Credits < 0 {
		return fmt.Errorf("negative usage %d", report.Credits)
	}

	err := l.within(ctx, report.TeamID, func(repo Repository) error {
		usage := &models.UsageHistory{
			ID:          uuid.New(),
			TeamID:      report.TeamID,
			ContentType: report.Kind,
			ObjectID:    report.ObjectID,
			RequestedBy: report.RequestedBy,
			PageCredits: report.Credits,
		}
		if err := repo.CreateUsage(ctx, usage); err != nil {
			return fmt.Errorf("create usage: %w", err)
		}

		if !l.mode.Metered() || report.Credits == 0 {
			return nil
		}

		sub, err := repo.ActiveSubscription(ctx, report.TeamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				l.logger.Warn("usage reported without active subscription", "team_id", report.TeamID.String(), "kind", string(report.Kind))
				return nil
			}
			return fmt.Errorf("load active subscription: %w", err)
		}
		sub.RemainPageCredit = max(0, sub.RemainPageCredit-report.Credits)
		sub.RemainDailyPageCredit = max(0, sub.RemainDailyPageCredit-report.Credits)
		return repo.UpdateSubscription(ctx, sub, "remain_page_credit", "remain_daily_page_credit")
	})
	if err != nil {
		return err
	}

	metrics.CreditsConsumedTotal.WithLabelValues(string(report.Kind)).Add(float64(report.Credits))
	return nil
}

// ResetDailyCredits refills every active subscription's daily counter from
// its plan. It is a no-op in unmetered mode.
func (l *Ledger) ResetDailyCredits(ctx context.Context) (int64, error) {
	if !l.mode.Metered() {
		return 0, nil
	}
	n, err := l.repo.ResetDailyCredits(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset daily credits: %w", err)
	}
	metrics.DailyCreditResetsTotal.Add(float64(n))
	return n, nil
}

func (l *Ledger) within(ctx context.Context, teamID uuid.UUID, fn func(Repository) error) error {
	if l.serialize {
		return l.repo.WithinTeam(ctx, teamID, fn)
	}
	return fn(l.repo)
}
