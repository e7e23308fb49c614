package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/rocketscienceinc/bingo-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	// When: flags are parsed, underscores are accepted too
	require.NoError(t, cmd.ParseFlags([]string{"-c", "/etc/bingo.yml", "--log_level", "debug"}))

	// Then: both reach their flags
	configPath, err := cmd.Flags().GetString("config")
	require.NoError(t, err)
	assert.Equal(t, "/etc/bingo.yml", configPath)

	logLevel, err := cmd.Flags().GetString("log-level")
	require.NoError(t, err)
	assert.Equal(t, "debug", logLevel)
}

func TestRootCmd_RejectsInvalidLogLevel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", t.TempDir() + "/missing.yml", "--log-level", "loud"})

	err := cmd.Execute()

	assert.ErrorIs(t, err, config.ErrInvalidLogLevel)
}

func TestInitLogger(t *testing.T) {
	logger := initLogger(&config.Config{LogLevel: "warn"})

	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}
