package quota_test

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/stretchr/testify/assert"
)

func TestSearchCost(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		depth models.SearchDepth
		want  int
	}{
		{"basic", 5, models.SearchDepthBasic, 5},
		{"advanced", 5, models.SearchDepthAdvanced, 10},
		{"ultimate", 10, models.SearchDepthUltimate, 30},
		{"unknown depth costs like basic", 7, models.SearchDepth("deep"), 7},
		{"empty depth costs like basic", 3, "", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quota.SearchCost(tt.limit, tt.depth))
		})
	}
}

func TestSitemapCost(t *testing.T) {
	assert.Equal(t, 1, quota.SitemapCost(false))
	assert.Equal(t, 10, quota.SitemapCost(true))
}

func TestCrawlCosts(t *testing.T) {
	assert.Equal(t, 50, quota.CrawlCost(50))
	assert.Equal(t, 3, quota.BatchCrawlCost(3))
}
