package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

var allStatuses = []JobStatus{
	JobStatusNew,
	JobStatusRunning,
	JobStatusFinished,
	JobStatusCanceling,
	JobStatusCanceled,
	JobStatusFailed,
}

func TestJobStatusTransitions(t *testing.T) {
	allowed := map[JobStatus][]JobStatus{
		JobStatusNew:       {JobStatusRunning, JobStatusCanceling, JobStatusFailed},
		JobStatusRunning:   {JobStatusFinished, JobStatusCanceling, JobStatusFailed},
		JobStatusCanceling: {JobStatusCanceled, JobStatusFailed},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestCancelingNeverFinishes(t *testing.T) {
	assert.True(t, JobStatusNew.CanTransition(JobStatusCanceling))
	assert.False(t, JobStatusNew.CanTransition(JobStatusCanceled))
	assert.False(t, JobStatusCanceling.CanTransition(JobStatusFinished))
	assert.False(t, JobStatusNew.CanTransition(JobStatusFinished))
}

func TestTerminalStatusesNeverMove(t *testing.T) {
	for _, s := range allStatuses {
		if !s.IsTerminal() {
			continue
		}
		for _, to := range allStatuses {
			assert.False(t, s.CanTransition(to))
		}
	}
}

func TestOpenStatuses(t *testing.T) {
	assert.ElementsMatch(t, []JobStatus{JobStatusNew, JobStatusRunning}, OpenJobStatuses())
	for _, s := range allStatuses {
		assert.Equal(t, s == JobStatusNew || s == JobStatusRunning, s.IsOpen(), string(s))
		assert.True(t, s.Valid())
	}
	assert.False(t, JobStatus("paused").Valid())
	assert.False(t, JobStatus("paused").CanTransition(JobStatusRunning))
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, JobKindSitemap.Valid())
	assert.False(t, JobKind("video").Valid())
	assert.True(t, ProxyCategoryPremium.Valid())
	assert.False(t, ProxyCategory("vip").Valid())
	assert.Equal(t, "search", JobKindSearch.Label())
}

func TestCrawlRequestAccessors(t *testing.T) {
	slug := "fast"
	r := CrawlRequest{}
	r.Options = datatypes.NewJSONType(CrawlOptions{SpiderOptions: SpiderOptions{MaxDepth: 2, PageLimit: 40, ProxyServer: &slug}})

	assert.Equal(t, 2, r.MaxDepth())
	assert.Equal(t, 40, r.PageLimit())
	assert.Equal(t, &slug, r.ProxyServer())
}

func TestJobKindTable(t *testing.T) {
	assert.Equal(t, "crawl_requests", JobKindCrawl.Table())
	assert.Equal(t, "search_requests", JobKindSearch.Table())
	assert.Equal(t, "sitemap_requests", JobKindSitemap.Table())
	assert.Empty(t, JobKind("scrape").Table())
}
