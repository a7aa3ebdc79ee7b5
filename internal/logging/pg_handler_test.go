package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedHandler() (*PGHandler, *[]models.SystemLog) {
	buf := make([]models.SystemLog, 0, batchSize)
	return &PGHandler{mu: &sync.Mutex{}, buffer: &buf}, &buf
}

func TestPGHandlerLiftsColumns(t *testing.T) {
	h, buf := newBufferedHandler()
	logger := slog.New(h).With("team_id", "team-1")

	logger.Error("admission failed",
		"request_id", "req-9",
		"action", "admit_crawl",
		"error", "connection reset",
		"latency_ms", 12.6,
		"kind", "crawl",
		"job_id", "job-4",
		"url", "https://example.com",
	)

	require.Len(t, *buf, 1)
	entry := (*buf)[0]
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "admission failed", entry.Message)
	require.NotNil(t, entry.TeamID)
	assert.Equal(t, "team-1", *entry.TeamID)
	assert.Equal(t, "req-9", entry.RequestID)
	assert.Equal(t, "admit_crawl", entry.Action)
	assert.Equal(t, "connection reset", entry.Error)
	assert.Equal(t, 13, entry.LatencyMs)
	assert.Equal(t, "crawl", entry.JobKind)
	require.NotNil(t, entry.JobID)
	assert.Equal(t, "job-4", *entry.JobID)

	var extra map[string]any
	require.NoError(t, json.Unmarshal(entry.Extra, &extra))
	assert.Equal(t, "https://example.com", extra["url"])
	assert.NotContains(t, extra, "kind")
}

func TestPGHandlerOnlyErrors(t *testing.T) {
	h, _ := newBufferedHandler()
	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestMultiHandlerFansOut(t *testing.T) {
	pg, buf := newBufferedHandler()
	var seen []string
	capture := slog.NewJSONHandler(writerFunc(func(p []byte) (int, error) {
		seen = append(seen, string(p))
		return len(p), nil
	}), &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(capture, pg))
	logger.Info("job status reported")
	logger.Error("flush failed")

	assert.Len(t, seen, 2)
	assert.Len(t, *buf, 1)
	assert.WithinDuration(t, time.Now(), (*buf)[0].Timestamp, time.Minute)
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
