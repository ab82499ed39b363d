package logs

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ulink/config"
	"ulink/internal/domain/entity"
	"ulink/internal/infra/bus"
)

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(Params{Config: &config.Config{Log: config.Log{Level: level}}})
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}

	_, err := New(Params{Config: &config.Config{Log: config.Log{Level: "verbose"}}})
	assert.Error(t, err)
}

func TestBusHandlerPublishesRecords(t *testing.T) {
	topic := bus.NewTopic[entity.LogEntry]()
	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewBusHandler(inner, topic))

	logger.Info("bootstrap completed")

	entry, ok := topic.Latest()
	require.True(t, ok)
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "ulink", entry.Tag)
	assert.Equal(t, "bootstrap completed", entry.Message)
	assert.NotZero(t, entry.TimestampMillis)
}

func TestBusHandlerRespectsInnerLevel(t *testing.T) {
	topic := bus.NewTopic[entity.LogEntry]()
	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(NewBusHandler(inner, topic))

	logger.Debug("suppressed")

	_, ok := topic.Latest()
	assert.False(t, ok)
}

func TestBusHandlerGroupSetsTag(t *testing.T) {
	topic := bus.NewTopic[entity.LogEntry]()
	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewBusHandler(inner, topic)).WithGroup("session")

	logger.Info("session started")

	entry, ok := topic.Latest()
	require.True(t, ok)
	assert.Equal(t, "session", entry.Tag)
}
