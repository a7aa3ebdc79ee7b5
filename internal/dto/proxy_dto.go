package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
)

type ProxyServerRequest struct {
	Name      string  `json:"name" validate:"required,max=255"`
	Slug      string  `json:"slug" validate:"required,max=255"`
	IsDefault bool    `json:"is_default"`
	ProxyType string  `json:"proxy_type" validate:"required,oneof=http https socks4 socks5"`
	Host      string  `json:"host" validate:"required,max=255"`
	Port      int     `json:"port" validate:"required,min=1,max=65535"`
	Username  *string `json:"username"`
	Password  *string `json:"password"`
}

// GlobalProxyServerRequest creates a proxy shared by every team.
type GlobalProxyServerRequest struct {
	ProxyServerRequest
	Category models.ProxyCategory `json:"category" validate:"required,oneof=general premium"`
}

type ProxyServerResponse struct {
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	IsDefault   bool      `json:"is_default"`
	ProxyType   string    `json:"proxy_type"`
	Host        string    `json:"host"`
	Port        int       `json:"port"`
	Username    *string   `json:"username"`
	HasPassword bool      `json:"has_password"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewProxyServerResponse(p *models.ProxyServer) ProxyServerResponse {
	return ProxyServerResponse{
		Name:        p.Name,
		Slug:        p.Slug,
		IsDefault:   p.IsDefault,
		ProxyType:   p.ProxyType,
		Host:        p.Host,
		Port:        p.Port,
		Username:    p.Username,
		HasPassword: p.HasPassword(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type ProxyServerListItem struct {
	Name     string               `json:"name"`
	Slug     string               `json:"slug"`
	Category models.ProxyCategory `json:"category"`
}

type TestProxyRequest struct {
	Slug      *string `json:"slug"`
	Host      *string `json:"host"`
	Port      *int    `json:"port"`
	ProxyType *string `json:"proxy_type"`
	Username  *string `json:"username"`
	Password  *string `json:"password"`
}

type TestedProxy struct {
	Host        string  `json:"host"`
	Port        int     `json:"port"`
	ProxyType   string  `json:"proxy_type"`
	Username    *string `json:"username"`
	HasPassword bool    `json:"has_password"`
}

type TestProxyResponse struct {
	OK     bool        `json:"ok"`
	Tested TestedProxy `json:"tested"`
}
