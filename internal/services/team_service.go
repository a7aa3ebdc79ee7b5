package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/tenant"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrAPIKeyNotFound     = errors.New("API key not found")
	ErrAlreadyMember      = errors.New("user is already a member of the team")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrOwnerProtected     = errors.New("you can not delete the owner of the team")
)

// APIKeyPrefix marks team API keys so they are recognisable in logs and
// secret scanners.
const APIKeyPrefix = "wc_"

const (
	apiKeyCacheSize = 1024
	apiKeyCacheTTL  = 30 * time.Second
)

type cachedKey struct {
	keyID uuid.UUID
	team  models.Team
}

type TeamService struct {
	db   *gorm.DB
	keys *lru.LRU[string, cachedKey]
}

// NewTeamService keeps resolved API keys for a short while so keyed traffic
// does not hit the database on every request. last_used_at is stamped on
// cache misses only.
func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{
		db:   db,
		keys: lru.NewLRU[string, cachedKey](apiKeyCacheSize, nil, apiKeyCacheTTL),
	}
}

// ResolveForUser returns the team selected by the X-TEAM-ID header when the
// user is a member of it, otherwise the user's first team. A user without
// any team gets a default one.
func (s *TeamService) ResolveForUser(ctx context.Context, userID uuid.UUID, teamID *uuid.UUID) (*models.Team, error) {
	db := s.db.WithContext(ctx)

	if teamID != nil {
		var team models.Team
		err := db.Joins("JOIN team_members ON team_members.team_id = teams.id").
			Where("teams.id = ? AND team_members.user_id = ?", *teamID, userID).
			First(&team).Error
		if err == nil {
			return &team, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var team models.Team
	err := db.Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Order("teams.created_at ASC").
		First(&team).Error
	if err == nil {
		return &team, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var created *models.Team
	err = db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		created, txErr = createTeamForUser(tx, userID, "Default", true)
		return txErr
	})
	return created, err
}

// ResolveAPIKey returns the team owning key and stamps its last use.
func (s *TeamService) ResolveAPIKey(ctx context.Context, key string) (*models.Team, error) {
	if hit, ok := s.keys.Get(key); ok {
		team := hit.team
		return &team, nil
	}
	db := s.db.WithContext(ctx)

	var apiKey models.TeamAPIKey
	if err := db.Where("key = ?", key).First(&apiKey).Error; err != nil {
		return nil, ErrInvalidAPIKey
	}
	db.Model(&apiKey).Update("last_used_at", time.Now())

	var team models.Team
	if err := db.First(&team, "id = ?", apiKey.TeamID).Error; err != nil {
		return nil, ErrInvalidAPIKey
	}
	s.keys.Add(key, cachedKey{keyID: apiKey.ID, team: team})
	return &team, nil
}

func (s *TeamService) List(ctx context.Context, userID uuid.UUID) ([]models.Team, error) {
	var teams []models.Team
	err := s.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Order("teams.created_at ASC").
		Find(&teams).Error
	return teams, err
}

func (s *TeamService) Get(ctx context.Context, userID, teamID uuid.UUID) (*models.Team, error) {
	var team models.Team
	err := s.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("teams.id = ? AND team_members.user_id = ?", teamID, userID).
		First(&team).Error
	if err != nil {
		return nil, ErrTeamNotFound
	}
	return &team, nil
}

func (s *TeamService) Create(ctx context.Context, userID uuid.UUID, name string) (*models.Team, error) {
	var team *models.Team
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		team, err = createTeamForUser(tx, userID, name, false)
		return err
	})
	return team, err
}

func (s *TeamService) Rename(ctx context.Context, team *models.Team, name string) (*models.Team, error) {
	if err := s.db.WithContext(ctx).Model(team).Update("name", name).Error; err != nil {
		return nil, fmt.Errorf("failed to rename team: %w", err)
	}
	team.Name = name
	return team, nil
}

// Invite creates an invitation or refreshes the token of an existing one.
func (s *TeamService) Invite(ctx context.Context, teamID uuid.UUID, email string) error {
	db := s.db.WithContext(ctx)
	email = normalizeEmail(email)

	var members int64
	db.Model(&models.TeamMember{}).
		Joins("JOIN users ON users.id = team_members.user_id").
		Where("team_members.team_id = ? AND users.email = ?", teamID, email).
		Count(&members)
	if members > 0 {
		return ErrAlreadyMember
	}

	token, err := randomToken(32)
	if err != nil {
		return err
	}
	inv := models.TeamInvitation{
		ID:              uuid.New(),
		TeamID:          teamID,
		Email:           email,
		InvitationToken: &token,
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "team_id"}, {Name: "email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"invitation_token": token, "activated": false}),
	}).Create(&inv).Error
}

func (s *TeamService) ListInvitations(ctx context.Context, teamID uuid.UUID) ([]models.TeamInvitation, error) {
	var invs []models.TeamInvitation
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForTeam(teamID)).
		Where("activated = ?", false).
		Order("created_at DESC").
		Find(&invs).Error
	return invs, err
}

func (s *TeamService) MyInvitations(ctx context.Context, email string) ([]models.TeamInvitation, error) {
	var invs []models.TeamInvitation
	err := s.db.WithContext(ctx).
		Where("email = ? AND activated = ?", normalizeEmail(email), false).
		Order("created_at DESC").
		Find(&invs).Error
	return invs, err
}

func (s *TeamService) AcceptInvitation(ctx context.Context, user *models.User, invitationID uuid.UUID) error {
	var inv models.TeamInvitation
	err := s.db.WithContext(ctx).
		Where("id = ? AND email = ? AND activated = ?", invitationID, normalizeEmail(user.Email), false).
		First(&inv).Error
	if err != nil {
		return ErrInvitationNotFound
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return activateInvitation(tx, &inv, user.ID)
	})
}

func (s *TeamService) pendingInvitationByCode(ctx context.Context, code string) (*models.TeamInvitation, error) {
	var inv models.TeamInvitation
	err := s.db.WithContext(ctx).
		Where("invitation_token = ? AND activated = ?", code, false).
		First(&inv).Error
	if err != nil {
		return nil, ErrInvitationNotFound
	}
	return &inv, nil
}

func (s *TeamService) ListMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := s.db.WithContext(ctx).
		Preload("User").
		Scopes(tenant.ForTeam(teamID)).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (s *TeamService) CountMembers(ctx context.Context, teamID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.TeamMember{}).Scopes(tenant.ForTeam(teamID)).Count(&n).Error
	return n, err
}

func (s *TeamService) RemoveMember(ctx context.Context, teamID, memberID uuid.UUID) error {
	var member models.TeamMember
	if err := s.db.WithContext(ctx).Scopes(tenant.ForTeam(teamID)).First(&member, "id = ?", memberID).Error; err != nil {
		return ErrMemberNotFound
	}
	if member.IsOwner {
		return ErrOwnerProtected
	}
	return s.db.WithContext(ctx).Delete(&member).Error
}

func (s *TeamService) ListAPIKeys(ctx context.Context, teamID uuid.UUID) ([]models.TeamAPIKey, error) {
	var keys []models.TeamAPIKey
	err := s.db.WithContext(ctx).Scopes(tenant.ForTeam(teamID)).Order("created_at DESC").Find(&keys).Error
	return keys, err
}

func (s *TeamService) CreateAPIKey(ctx context.Context, teamID uuid.UUID, name string) (*models.TeamAPIKey, error) {
	key, err := newAPIKey(teamID, name)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(key).Error; err != nil {
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}
	return key, nil
}

func (s *TeamService) DeleteAPIKey(ctx context.Context, teamID, keyID uuid.UUID) error {
	res := s.db.WithContext(ctx).Scopes(tenant.ForTeam(teamID)).Delete(&models.TeamAPIKey{}, "id = ?", keyID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAPIKeyNotFound
	}
	s.forgetKey(keyID)
	return nil
}

// forgetKey drops a deleted key from the cache so it stops working at once.
func (s *TeamService) forgetKey(keyID uuid.UUID) {
	for _, k := range s.keys.Keys() {
		if hit, ok := s.keys.Peek(k); ok && hit.keyID == keyID {
			s.keys.Remove(k)
		}
	}
}

// createTeamForUser makes userID the owner of a new team with a default API
// key. It must run inside a transaction.
func createTeamForUser(tx *gorm.DB, userID uuid.UUID, name string, isDefault bool) (*models.Team, error) {
	team := models.Team{ID: uuid.New(), Name: name, IsDefault: isDefault}
	if err := tx.Create(&team).Error; err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	member := models.TeamMember{ID: uuid.New(), UserID: userID, TeamID: team.ID, IsOwner: true}
	if err := tx.Omit(clause.Associations).Create(&member).Error; err != nil {
		return nil, fmt.Errorf("failed to add team owner: %w", err)
	}

	key, err := newAPIKey(team.ID, "Default")
	if err != nil {
		return nil, err
	}
	if err := tx.Create(key).Error; err != nil {
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}
	return &team, nil
}

func activateInvitation(tx *gorm.DB, inv *models.TeamInvitation, userID uuid.UUID) error {
	err := tx.Model(inv).Updates(map[string]interface{}{
		"activated":        true,
		"invitation_token": nil,
	}).Error
	if err != nil {
		return err
	}

	member := models.TeamMember{ID: uuid.New(), UserID: userID, TeamID: inv.TeamID}
	return tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&member).Error
}

func newAPIKey(teamID uuid.UUID, name string) (*models.TeamAPIKey, error) {
	raw, err := randomToken(32)
	if err != nil {
		return nil, err
	}
	return &models.TeamAPIKey{
		ID:     uuid.New(),
		Name:   name,
		TeamID: teamID,
		Key:    APIKeyPrefix + raw,
	}, nil
}
