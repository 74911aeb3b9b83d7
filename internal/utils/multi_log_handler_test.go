package utils

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiLogHandler_FansOutToAllHandlers(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiLogHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)

	logger := slog.New(h)
	logger.Info("sync progress", "files", 3)

	assert.Contains(t, a.String(), "sync progress")
	assert.Contains(t, b.String(), "sync progress")
}

func TestMultiLogHandler_RespectsPerHandlerLevels(t *testing.T) {
	var debug, warn bytes.Buffer
	h := NewMultiLogHandler(
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)

	logger := slog.New(h)
	logger.Debug("noisy detail")

	assert.Contains(t, debug.String(), "noisy detail")
	assert.Empty(t, warn.String())
}
