package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that can belong to any number of teams.
type User struct {
	ID                     uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	Email                  string     `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password               *string    `gorm:"size:255" json:"-"`
	FirstName              string     `gorm:"size:150;default:''" json:"first_name"`
	LastName               string     `gorm:"size:150;default:''" json:"last_name"`
	EmailVerified          bool       `gorm:"default:false" json:"email_verified"`
	ResetPasswordToken     *string    `gorm:"size:255;index" json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`
	EmailVerificationToken *string    `gorm:"size:255;index" json:"-"`
	PrivacyConfirmedAt     *time.Time `json:"privacy_confirmed_at"`
	TermsConfirmedAt       *time.Time `json:"terms_confirmed_at"`
	NewsletterConfirmed    bool       `gorm:"default:false" json:"newsletter_confirmed"`
	IsActive               bool       `gorm:"default:true" json:"-"`
	IsStaff                bool       `gorm:"default:false" json:"-"`
	IsSuperuser            bool       `gorm:"default:false" json:"-"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}
