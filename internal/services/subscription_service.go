package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionService struct {
	db       *gorm.DB
	cfg      *config.Config
	ledger   *quota.Ledger
	resolver *quota.Resolver
	repo     quota.SubscriptionFinder
	teams    *TeamService
}

func NewSubscriptionService(db *gorm.DB, cfg *config.Config, ledger *quota.Ledger, resolver *quota.Resolver, repo quota.SubscriptionFinder, teams *TeamService) *SubscriptionService {
	return &SubscriptionService{
		db:       db,
		cfg:      cfg,
		ledger:   ledger,
		resolver: resolver,
		repo:     repo,
		teams:    teams,
	}
}

// List returns every subscription of the team, newest first.
func (s *SubscriptionService) List(ctx context.Context, teamID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Preload("Plan.Features", orderedFeatures).
		Scopes(tenant.ForTeam(teamID)).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (s *SubscriptionService) Get(ctx context.Context, teamID, subID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Preload("Plan.Features", orderedFeatures).
		Scopes(tenant.ForTeam(teamID)).
		First(&sub, "id = ?", subID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Current describes the team's plan and remaining credit. In unmetered mode
// it reports an "Unlimited" plan.
func (s *SubscriptionService) Current(ctx context.Context, teamID uuid.UUID) (*dto.TeamPlanResponse, error) {
	if !s.resolver.Mode().Metered() {
		return &dto.TeamPlanResponse{
			PlanName:                 "Unlimited",
			Status:                   string(models.SubscriptionStatusActive),
			PlanPageCredit:           quota.Unlimited,
			PlanDailyPageCredit:      quota.Unlimited,
			PlanNumberUsers:          quota.Unlimited,
			RemainNumberUsers:        quota.Unlimited,
			RemainingPageCredit:      quota.Unlimited,
			RemainingDailyPageCredit: quota.Unlimited,
			MaxDepth:                 quota.Unlimited,
			MaxConcurrentCrawl:       quota.Unlimited,
		}, nil
	}

	sub, err := s.repo.ActiveSubscription(ctx, teamID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, quota.ErrNoActiveSubscription
	}
	if err != nil {
		return nil, err
	}

	members, err := s.teams.CountMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}

	plan := sub.Plan
	return &dto.TeamPlanResponse{
		PlanName:                 plan.Name,
		Status:                   string(sub.Status),
		PlanPageCredit:           plan.PageCredit,
		PlanDailyPageCredit:      plan.DailyPageCredit,
		PlanNumberUsers:          plan.NumberOfUsers,
		RemainNumberUsers:        max(0, plan.NumberOfUsers-int(members)),
		RemainingPageCredit:      sub.RemainPageCredit,
		RemainingDailyPageCredit: sub.RemainDailyPageCredit,
		MaxDepth:                 plan.CrawlMaxDepth,
		MaxConcurrentCrawl:       plan.MaxConcurrentCrawl,
		StartAt:                  sub.StartAt,
		CurrentPeriodStartAt:     sub.CurrentPeriodStartAt,
		CurrentPeriodEndAt:       sub.CurrentPeriodEndAt,
		CancelAt:                 sub.CancelAt,
		IsDefault:                plan.IsDefault,
	}, nil
}

// Start activates planID for the team. Paid plans answer with the checkout
// URL.
func (s *SubscriptionService) Start(ctx context.Context, teamID, planID uuid.UUID) (*dto.StartSubscriptionResponse, error) {
	res, err := s.ledger.Start(ctx, teamID, planID)
	if err != nil {
		return nil, err
	}
	if res.Plan.IsDefault {
		return &dto.StartSubscriptionResponse{Started: true}, nil
	}
	return &dto.StartSubscriptionResponse{RedirectURL: s.cfg.CheckoutURL}, nil
}

func (s *SubscriptionService) Cancel(ctx context.Context, teamID uuid.UUID) error {
	return s.ledger.Cancel(ctx, teamID)
}

func (s *SubscriptionService) Renew(ctx context.Context, teamID uuid.UUID) error {
	return s.ledger.Renew(ctx, teamID)
}

func (s *SubscriptionService) ManageURL() string {
	return s.cfg.BillingPortalURL
}

// HandleStripeEvent stores every event and applies the subscription ones
// it understands.
func (s *SubscriptionService) HandleStripeEvent(ctx context.Context, raw []byte, event *dto.StripeWebhook) error {
	history := models.StripeWebhookHistory{
		ID:        uuid.New(),
		EventType: event.Type,
		Payload:   datatypes.JSON(raw),
	}
	if err := s.db.WithContext(ctx).Create(&history).Error; err != nil {
		return fmt.Errorf("store webhook: %w", err)
	}

	switch event.Type {
	case "customer.subscription.deleted":
		return s.handleDeleted(ctx, event)
	case "customer.subscription.updated":
		return s.handleUpdated(ctx, event)
	default:
		return nil
	}
}

func (s *SubscriptionService) handleDeleted(ctx context.Context, event *dto.StripeWebhook) error {
	obj, err := decodeStripeSubscription(event)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("stripe_subscription_id = ? AND status = ?", obj.ID, models.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"status":    models.SubscriptionStatusCanceled,
			"cancel_at": time.Now().UTC(),
		}).Error
}

func (s *SubscriptionService) handleUpdated(ctx context.Context, event *dto.StripeWebhook) error {
	obj, err := decodeStripeSubscription(event)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"current_period_start_at": unixToTime(obj.CurrentPeriodStart),
		"current_period_end_at":   unixToTime(obj.CurrentPeriodEnd),
		"cancel_at":               nil,
	}
	if obj.CancelAt != nil {
		updates["cancel_at"] = unixToTime(*obj.CancelAt)
	}

	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", obj.ID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		slog.Warn("stripe subscription not found", "stripe_subscription_id", obj.ID, "event_type", event.Type)
	}
	return nil
}

func decodeStripeSubscription(event *dto.StripeWebhook) (*dto.StripeSubscriptionObject, error) {
	var obj dto.StripeSubscriptionObject
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
		return nil, fmt.Errorf("decode %s object: %w", event.Type, err)
	}
	if obj.ID == "" {
		return nil, fmt.Errorf("%s without subscription id", event.Type)
	}
	return &obj, nil
}

func unixToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
