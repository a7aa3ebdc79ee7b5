package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UsageHistory records credits actually consumed by a finished job.
type UsageHistory struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	TeamID      uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ContentType JobKind   `gorm:"size:50;not null" json:"content_type"`
	ObjectID    uuid.UUID `gorm:"type:uuid;not null;index" json:"object_id"`
	RequestedBy string    `gorm:"size:255" json:"requested_by"`
	PageCredits int       `gorm:"not null;default:0" json:"page_credits"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// StripeWebhookHistory keeps every payment provider event for later replay.
type StripeWebhookHistory struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	EventType string         `gorm:"size:255;index" json:"event_type"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
