package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrProxyNotFound     = errors.New("proxy server not found")
	ErrProxySlugTaken    = errors.New("proxy server with this slug already exists")
	ErrProxyIncomplete   = errors.New("host, port and proxy_type are required")
	ErrInvalidProxyScope = errors.New("global proxies must be general or premium")
)

// ProxyService manages team proxies and the global general/premium pool.
type ProxyService struct {
	db *gorm.DB
}

func NewProxyService(db *gorm.DB) *ProxyService {
	return &ProxyService{db: db}
}

func (s *ProxyService) List(ctx context.Context, teamID uuid.UUID) ([]models.ProxyServer, error) {
	var proxies []models.ProxyServer
	err := s.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&proxies).Error
	return proxies, err
}

// ListAll returns the team's proxies together with the global ones, by name.
func (s *ProxyService) ListAll(ctx context.Context, teamID uuid.UUID) ([]models.ProxyServer, error) {
	var proxies []models.ProxyServer
	err := s.db.WithContext(ctx).
		Where("team_id = ? OR team_id IS NULL", teamID).
		Order("name ASC").
		Find(&proxies).Error
	return proxies, err
}

func (s *ProxyService) Get(ctx context.Context, teamID uuid.UUID, slug string) (*models.ProxyServer, error) {
	var proxy models.ProxyServer
	err := s.db.WithContext(ctx).
		Where("team_id = ? AND slug = ?", teamID, slug).
		First(&proxy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProxyNotFound
		}
		return nil, err
	}
	return &proxy, nil
}

func (s *ProxyService) Create(ctx context.Context, teamID uuid.UUID, req *dto.ProxyServerRequest) (*models.ProxyServer, error) {
	db := s.db.WithContext(ctx)
	if err := s.ensureSlugFree(db, &teamID, req.Slug, uuid.Nil); err != nil {
		return nil, err
	}

	proxy := &models.ProxyServer{
		ID:       uuid.New(),
		Category: models.ProxyCategoryTeam,
		TeamID:   &teamID,
	}
	applyProxyRequest(proxy, req)
	if err := db.Create(proxy).Error; err != nil {
		return nil, fmt.Errorf("failed to create proxy server: %w", err)
	}
	return proxy, nil
}

// CreateGlobal adds a proxy shared by every team. Access to it is governed by
// the plan's proxy categories.
func (s *ProxyService) CreateGlobal(ctx context.Context, req *dto.GlobalProxyServerRequest) (*models.ProxyServer, error) {
	if req.Category != models.ProxyCategoryGeneral && req.Category != models.ProxyCategoryPremium {
		return nil, ErrInvalidProxyScope
	}
	db := s.db.WithContext(ctx)
	if err := s.ensureSlugFree(db, nil, req.Slug, uuid.Nil); err != nil {
		return nil, err
	}

	proxy := &models.ProxyServer{
		ID:       uuid.New(),
		Category: req.Category,
	}
	applyProxyRequest(proxy, &req.ProxyServerRequest)
	if err := db.Create(proxy).Error; err != nil {
		return nil, fmt.Errorf("failed to create proxy server: %w", err)
	}
	return proxy, nil
}

func (s *ProxyService) Update(ctx context.Context, teamID uuid.UUID, slug string, req *dto.ProxyServerRequest) (*models.ProxyServer, error) {
	proxy, err := s.Get(ctx, teamID, slug)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := s.ensureSlugFree(db, &teamID, req.Slug, proxy.ID); err != nil {
		return nil, err
	}

	applyProxyRequest(proxy, req)
	err = db.Model(proxy).
		Select("name", "slug", "is_default", "proxy_type", "host", "port", "username", "password").
		Updates(proxy).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update proxy server: %w", err)
	}
	return proxy, nil
}

func (s *ProxyService) Delete(ctx context.Context, teamID uuid.UUID, slug string) error {
	proxy, err := s.Get(ctx, teamID, slug)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(proxy).Error
}

// Test resolves the proxy settings a connection test would use. Fields sent
// in the request override the stored proxy named by Slug.
func (s *ProxyService) Test(ctx context.Context, teamID uuid.UUID, req *dto.TestProxyRequest) (*dto.TestProxyResponse, error) {
	var tested dto.TestedProxy
	var password *string

	if req.Slug != nil && *req.Slug != "" {
		proxy, err := s.Get(ctx, teamID, *req.Slug)
		if err != nil {
			if errors.Is(err, ErrProxyNotFound) {
				return nil, quota.ErrProxyNotFound
			}
			return nil, err
		}
		tested = dto.TestedProxy{
			Host:      proxy.Host,
			Port:      proxy.Port,
			ProxyType: proxy.ProxyType,
			Username:  proxy.Username,
		}
		password = proxy.Password
	}

	if req.Host != nil && *req.Host != "" {
		tested.Host = *req.Host
	}
	if req.Port != nil && *req.Port != 0 {
		tested.Port = *req.Port
	}
	if req.ProxyType != nil && *req.ProxyType != "" {
		tested.ProxyType = *req.ProxyType
	}
	if req.Username != nil && *req.Username != "" {
		tested.Username = req.Username
	}
	if req.Password != nil && *req.Password != "" {
		password = req.Password
	}

	if tested.Host == "" || tested.Port == 0 || tested.ProxyType == "" {
		return nil, ErrProxyIncomplete
	}
	tested.HasPassword = password != nil && *password != ""
	return &dto.TestProxyResponse{OK: true, Tested: tested}, nil
}

func (s *ProxyService) ensureSlugFree(db *gorm.DB, teamID *uuid.UUID, slug string, exclude uuid.UUID) error {
	q := db.Model(&models.ProxyServer{}).Where("slug = ?", slug)
	if teamID != nil {
		q = q.Where("team_id = ?", *teamID)
	} else {
		q = q.Where("team_id IS NULL")
	}
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrProxySlugTaken
	}
	return nil
}

func applyProxyRequest(p *models.ProxyServer, req *dto.ProxyServerRequest) {
	p.Name = req.Name
	p.Slug = req.Slug
	p.IsDefault = req.IsDefault
	p.ProxyType = req.ProxyType
	p.Host = req.Host
	p.Port = req.Port
	p.Username = req.Username
	p.Password = req.Password
}
