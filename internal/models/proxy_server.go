package models

import (
	"time"

	"github.com/google/uuid"
)

// ProxyServer is an outbound proxy. Team proxies carry a TeamID; general and
// premium proxies are global and have none.
type ProxyServer struct {
	ID        uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"uuid"`
	Name      string        `gorm:"size:255;not null" json:"name"`
	Slug      string        `gorm:"size:255;not null;index" json:"slug"`
	IsDefault bool          `gorm:"default:false" json:"is_default"`
	Category  ProxyCategory `gorm:"size:50;not null;default:'team'" json:"category"`
	ProxyType string        `gorm:"size:50;not null;default:'http'" json:"proxy_type"`
	Host      string        `gorm:"size:255;not null" json:"host"`
	Port      int           `gorm:"not null" json:"port"`
	Username  *string       `gorm:"size:255" json:"username"`
	Password  *string       `gorm:"size:255" json:"-"`
	TeamID    *uuid.UUID    `gorm:"type:uuid;index" json:"-"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (p *ProxyServer) HasPassword() bool {
	return p.Password != nil && *p.Password != ""
}
