package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription binds a team to a plan for a billing period and carries the
// remaining credit counters. Rows are never deleted.
type Subscription struct {
	ID                    uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	TeamID                uuid.UUID          `gorm:"type:uuid;not null;index" json:"-"`
	StripeSubscriptionID  string             `gorm:"size:255;index" json:"-"`
	PlanID                uuid.UUID          `gorm:"type:uuid;not null;index" json:"-"`
	RemainPageCredit      int                `gorm:"default:0" json:"remain_page_credit"`
	RemainDailyPageCredit int                `gorm:"default:0" json:"remain_daily_page_credit"`
	StartAt               *time.Time         `json:"start_at"`
	CurrentPeriodStartAt  *time.Time         `json:"current_period_start_at"`
	CurrentPeriodEndAt    *time.Time         `json:"current_period_end_at"`
	CancelAt              *time.Time         `json:"cancel_at"`
	Status                SubscriptionStatus `gorm:"size:255;not null;default:'active';index" json:"status"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
	Plan                  Plan               `gorm:"foreignKey:PlanID;constraint:OnDelete:RESTRICT" json:"plan"`
}

func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}
