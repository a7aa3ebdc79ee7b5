package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProxyFinder interface {
	FindProxy(ctx context.Context, teamID uuid.UUID, slug string) (*models.ProxyServer, error)
}

// CheckProxyAccess verifies that the team may route a job through the proxy
// named by slug. A nil or empty slug means no proxy and always passes.
func CheckProxyAccess(ctx context.Context, finder ProxyFinder, teamID uuid.UUID, slug *string, limits *Limits) error {
	if slug == nil || *slug == "" {
		return nil
	}

	proxy, err := finder.FindProxy(ctx, teamID, *slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProxyNotFound
		}
		return fmt.Errorf("find proxy %q: %w", *slug, err)
	}

	if !limits.AllowsProxyCategory(proxy.Category) {
		return ErrProxyAccessDenied
	}
	return nil
}
