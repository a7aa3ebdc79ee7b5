package quota_test

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestCancelFromRunning(t *testing.T) {
	next, err := quota.RequestCancel(models.JobKindCrawl, models.JobStatusRunning)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCanceling, next)
}

func TestRequestCancelRejectsOtherStates(t *testing.T) {
	states := []models.JobStatus{
		models.JobStatusNew,
		models.JobStatusFinished,
		models.JobStatusCanceling,
		models.JobStatusCanceled,
		models.JobStatusFailed,
	}
	kinds := map[models.JobKind]string{
		models.JobKindCrawl:   "Only running crawl requests can be deleted",
		models.JobKindSearch:  "Only running search requests can be deleted",
		models.JobKindSitemap: "Only running sitemap requests can be deleted",
	}
	for kind, msg := range kinds {
		for _, st := range states {
			next, err := quota.RequestCancel(kind, st)
			require.ErrorIs(t, err, quota.ErrInvalidState, "%s from %s", kind, st)
			assert.Equal(t, msg, err.Error())
			assert.Equal(t, st, next)
		}
	}
}

func TestCheckTransition(t *testing.T) {
	assert.NoError(t, quota.CheckTransition(models.JobKindSearch, models.JobStatusNew, models.JobStatusRunning))
	assert.NoError(t, quota.CheckTransition(models.JobKindSearch, models.JobStatusCanceling, models.JobStatusCanceled))

	assert.NoError(t, quota.CheckTransition(models.JobKindSitemap, models.JobStatusNew, models.JobStatusCanceling))

	err := quota.CheckTransition(models.JobKindCrawl, models.JobStatusCanceling, models.JobStatusFinished)
	require.ErrorIs(t, err, quota.ErrInvalidState)
	assert.Equal(t, "A crawl request cannot move from canceling to finished", err.Error())

	err = quota.CheckTransition(models.JobKindSearch, models.JobStatusFinished, models.JobStatusRunning)
	require.ErrorIs(t, err, quota.ErrInvalidState)
	assert.Equal(t, "A search request cannot move from finished to running", err.Error())

	err = quota.CheckTransition(models.JobKindCrawl, models.JobStatusNew, models.JobStatus("paused"))
	require.ErrorIs(t, err, quota.ErrInvalidState)
}
