package utils

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerDefaultArgs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, slog.LevelDebug)

	ctx := WithDefaultArgs(context.Background(), "partition", "p1")
	ctx = WithDefaultArgs(ctx, "op", "42")
	log.InfoCtx(ctx, "finished", "upserts", 2)

	out := buf.String()
	assert.Contains(t, out, "[widerow] finished")
	assert.Contains(t, out, "upserts=2")
	assert.Contains(t, out, "partition=p1")
	assert.Contains(t, out, "op=42")
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, slog.LevelWarn)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}
