package dto

import (
	"time"

	"github.com/google/uuid"
)

type StartSubscriptionRequest struct {
	PlanUUID uuid.UUID `json:"plan_uuid" validate:"required"`
}

// StartSubscriptionResponse carries Started for the free plan and a
// RedirectURL to checkout for paid plans.
type StartSubscriptionResponse struct {
	Started     bool   `json:"started,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

type RedirectResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// TeamPlanResponse is the current plan of a team. All numbers are -1 when
// metering is off.
type TeamPlanResponse struct {
	PlanName                 string     `json:"plan_name"`
	Status                   string     `json:"status"`
	PlanPageCredit           int        `json:"plan_page_credit"`
	PlanDailyPageCredit      int        `json:"plan_daily_page_credit"`
	PlanNumberUsers          int        `json:"plan_number_users"`
	RemainNumberUsers        int        `json:"remain_number_users"`
	RemainingPageCredit      int        `json:"remaining_page_credit"`
	RemainingDailyPageCredit int        `json:"remaining_daily_page_credit"`
	MaxDepth                 int        `json:"max_depth"`
	MaxConcurrentCrawl       int        `json:"max_concurrent_crawl"`
	StartAt                  *time.Time `json:"start_at"`
	CurrentPeriodStartAt     *time.Time `json:"current_period_start_at"`
	CurrentPeriodEndAt       *time.Time `json:"current_period_end_at"`
	CancelAt                 *time.Time `json:"cancel_at"`
	IsDefault                bool       `json:"is_default"`
}
