package dto

import (
	"time"

	"github.com/google/uuid"
)

type TeamRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

type TeamResponse struct {
	UUID      uuid.UUID `json:"uuid"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
}

type InvitationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type InvitationResponse struct {
	UUID      uuid.UUID `json:"uuid"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// InvitationCheckResponse tells the signup page whether the invitee still
// needs an account.
type InvitationCheckResponse struct {
	NewUser        bool   `json:"new_user"`
	Email          string `json:"email"`
	InvitationCode string `json:"invitation_code"`
}

type APIKeyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}
