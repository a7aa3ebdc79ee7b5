package models

import (
	"time"

	"github.com/google/uuid"
)

// Team is the tenant and billing boundary. Jobs, proxies, keys and
// subscriptions all hang off a team.
type Team struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	StripeCustomerID *string   `gorm:"size:255" json:"-"`
	IsDefault        bool      `gorm:"default:false" json:"is_default"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type TeamMember struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_team_member" json:"-"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_team_member;index" json:"-"`
	IsOwner   bool      `gorm:"default:false" json:"is_owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
}

type TeamInvitation struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	TeamID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_team_invitation_email" json:"-"`
	InvitationToken *string   `gorm:"size:255;index" json:"-"`
	Email           string    `gorm:"size:255;not null;uniqueIndex:uq_team_invitation_email;index" json:"email"`
	Activated       bool      `gorm:"default:false" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TeamAPIKey authenticates machine clients as a team via the X-API-Key header.
type TeamAPIKey struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	TeamID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"-"`
	Key        string     `gorm:"size:255;not null;uniqueIndex" json:"key"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
