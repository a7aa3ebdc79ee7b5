package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyInstalled   = errors.New("already installed")
	ErrSignupDisabled     = errors.New("signup is disabled")
	ErrLoginDisabled      = errors.New("login is disabled")
	ErrInvalidResetToken  = errors.New("invalid reset token")
	ErrInvalidVerifyToken = errors.New("invalid verification token")
	ErrEmailMismatch      = errors.New("emails do not match")
	ErrAccountExists      = errors.New("you already have an account")
)

const resetTokenTTL = time.Hour

type AuthService struct {
	db    *gorm.DB
	cfg   *config.Config
	teams *TeamService
}

func NewAuthService(db *gorm.DB, cfg *config.Config, teams *TeamService) *AuthService {
	return &AuthService{db: db, cfg: cfg, teams: teams}
}

// IsInstalled reports whether the first superuser exists.
func (s *AuthService) IsInstalled(ctx context.Context) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Install creates the first superuser together with its default team.
func (s *AuthService) Install(ctx context.Context, req *dto.InstallRequest) error {
	installed, err := s.IsInstalled(ctx)
	if err != nil {
		return err
	}
	if installed {
		return ErrAlreadyInstalled
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	user := models.User{
		ID:                  uuid.New(),
		Email:               normalizeEmail(req.Email),
		Password:            &hash,
		EmailVerified:       true,
		IsActive:            true,
		IsStaff:             true,
		IsSuperuser:         true,
		NewsletterConfirmed: req.NewsletterConfirmed,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		_, err := createTeamForUser(tx, user.ID, "Default", true)
		return err
	})
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	if !s.cfg.SignupActive {
		return nil, ErrSignupDisabled
	}

	email := normalizeEmail(req.Email)
	if s.emailExists(ctx, email) {
		return nil, ErrEmailTaken
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	token, err := randomToken(48)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:                     uuid.New(),
		Email:                  email,
		Password:               &hash,
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		IsActive:               true,
		EmailVerificationToken: &token,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	if !s.cfg.LoginActive {
		return nil, ErrLoginDisabled
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", normalizeEmail(req.Email), true).
		First(&user).Error
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Password == nil || bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return s.generateTokenPair(ctx, &user)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, error) {
	db := s.db.WithContext(ctx)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ?", hashToken(req.Refresh)).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}
	now := time.Now()
	if !stored.Usable(now) {
		return nil, ErrInvalidToken
	}

	// Conditional on revoked_at so a token presented twice at once rotates once.
	res := db.Model(&models.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", stored.ID).
		Update("revoked_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := db.Where("is_active = ?", true).First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, ErrInvalidToken
	}

	return s.generateTokenPair(ctx, &user)
}

func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hashToken(req.Refresh)).
		Update("revoked_at", time.Now()).Error
}

// VerifyToken checks the signature and expiry of an access token.
func (s *AuthService) VerifyToken(token string) error {
	_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err
}

// ForgotPassword issues a reset token. Unknown emails are silently ignored.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	token, err := randomToken(48)
	if err != nil {
		return err
	}
	expires := time.Now().Add(resetTokenTTL)
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", normalizeEmail(email)).
		Updates(map[string]interface{}{
			"reset_password_token":      token,
			"reset_password_expires_at": expires,
		}).Error
}

func (s *AuthService) userByResetToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_expires_at > ?", token, time.Now()).
		First(&user).Error
	if err != nil {
		return nil, ErrInvalidResetToken
	}
	return &user, nil
}

func (s *AuthService) ValidateResetToken(ctx context.Context, token string) error {
	_, err := s.userByResetToken(ctx, token)
	return err
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	user, err := s.userByResetToken(ctx, token)
	if err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"password":                  hash,
		"reset_password_token":      nil,
		"reset_password_expires_at": nil,
	}).Error
}

func (s *AuthService) ResendVerifyEmail(ctx context.Context, email string) error {
	token, err := randomToken(48)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", normalizeEmail(email)).
		Update("email_verification_token", token).Error
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*dto.TokenResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email_verification_token = ?", token).First(&user).Error; err != nil {
		return nil, ErrInvalidVerifyToken
	}
	err := s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"email_verified":           true,
		"email_verification_token": nil,
	}).Error
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(ctx, &user)
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, user *models.User, req *dto.ProfilePatchRequest) (*models.User, error) {
	now := time.Now()
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = &hash
	}
	if req.PrivacyConfirmed != nil && *req.PrivacyConfirmed {
		user.PrivacyConfirmedAt = &now
	}
	if req.TermsConfirmed != nil && *req.TermsConfirmed {
		user.TermsConfirmedAt = &now
	}
	if req.NewsletterConfirmed != nil {
		user.NewsletterConfirmed = *req.NewsletterConfirmed
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// CheckInvitation looks up a pending invitation by its public code.
func (s *AuthService) CheckInvitation(ctx context.Context, code string) (*dto.InvitationCheckResponse, error) {
	inv, err := s.teams.pendingInvitationByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &dto.InvitationCheckResponse{
		NewUser:        !s.emailExists(ctx, inv.Email),
		Email:          inv.Email,
		InvitationCode: code,
	}, nil
}

// SignupWithInvitation creates a verified user and joins them to the
// inviting team.
func (s *AuthService) SignupWithInvitation(ctx context.Context, code string, req *dto.RegisterRequest) (*models.User, error) {
	inv, err := s.teams.pendingInvitationByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if normalizeEmail(inv.Email) != email {
		return nil, ErrEmailMismatch
	}
	if s.emailExists(ctx, email) {
		return nil, ErrAccountExists
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		ID:            uuid.New(),
		Email:         email,
		Password:      &hash,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		EmailVerified: true,
		IsActive:      true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return activateInvitation(tx, inv, user.ID)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) emailExists(ctx context.Context, email string) bool {
	var n int64
	s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n)
	return n > 0
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{Access: accessToken, Refresh: refreshToken}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"type":  "access",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawToken, err := randomToken(32)
	if err != nil {
		return "", err
	}

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.WithContext(ctx).Omit("User").Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func randomToken(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
