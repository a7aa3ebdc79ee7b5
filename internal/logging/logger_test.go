package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelError+2, ParseLevel("error+2"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestConsoleHandlerFormats(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewConsoleHandler(&buf, "json", slog.LevelInfo)).Info("admitted", "kind", "crawl")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())

	buf.Reset()
	slog.New(NewConsoleHandler(&buf, "text", slog.LevelInfo)).Info("admitted", "kind", "crawl")
	assert.Contains(t, buf.String(), "kind=crawl")

	buf.Reset()
	slog.New(NewConsoleHandler(&buf, "json", slog.LevelWarn)).Info("dropped")
	assert.Empty(t, buf.String())
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandlerKeepsDeliveringOnError(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(nil, failingHandler{}, NewConsoleHandler(&buf, "json", slog.LevelInfo))

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "still written", 0))
	require.EqualError(t, err, "sink down")
	assert.Contains(t, buf.String(), "still written")
}
