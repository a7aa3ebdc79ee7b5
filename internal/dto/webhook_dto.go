package dto

import "encoding/json"

type StripeWebhook struct {
	ID   string          `json:"id"`
	Type string          `json:"type" validate:"required"`
	Data StripeEventData `json:"data"`
}

type StripeEventData struct {
	Object json.RawMessage `json:"object"`
}

// StripeSubscriptionObject is the part of a Stripe subscription object the
// webhook sink reads.
type StripeSubscriptionObject struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	CancelAt           *int64 `json:"cancel_at"`
}
