package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is an opaque, single-use refresh credential. Only its SHA-256
// hash is stored; rotation and logout set RevokedAt.
type RefreshToken struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"-"`
	TokenHash string     `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"-"`
	RevokedAt *time.Time `gorm:"index" json:"-"`
	CreatedAt time.Time  `json:"-"`
	User      User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
