package dto

type InstallRequest struct {
	Email               string `json:"email" validate:"required,email"`
	Password            string `json:"password" validate:"required,min=8"`
	NewsletterConfirmed bool   `json:"newsletter_confirmed"`
	AnalyticsConfirmed  bool   `json:"analytics_confirmed"`
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type LogoutRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type VerifyTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type TokenResponse struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

type ProfilePatchRequest struct {
	FirstName           *string `json:"first_name" validate:"omitempty,max=150"`
	LastName            *string `json:"last_name" validate:"omitempty,max=150"`
	Password            *string `json:"password" validate:"omitempty,min=8"`
	PrivacyConfirmed    *bool   `json:"privacy_confirmed"`
	TermsConfirmed      *bool   `json:"terms_confirmed"`
	NewsletterConfirmed *bool   `json:"newsletter_confirmed"`
}
