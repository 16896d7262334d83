package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-at-least-32-chars-long"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PMS_DATABASE_URL", "postgres://localhost:5432/planhub_test")
	t.Setenv("PMS_AUTH_JWT_SECRET", testSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 60, cfg.Auth.TokenLifetimeMinutes)
	assert.Equal(t, "first", cfg.Notify.MentionPolicy)
	assert.Equal(t, 30, cfg.Notify.SweepIntervalSeconds)
	assert.Equal(t, 10, cfg.Notify.SweepBatch)
	assert.Equal(t, 3, cfg.Notify.MaxAttempts)
	assert.Equal(t, 300, cfg.Notify.StuckClaimAgeSeconds)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PMS_SERVER_PORT", "9191")
	t.Setenv("PMS_SERVER_ENV", "production")
	t.Setenv("PMS_NOTIFY_MENTION_POLICY", "skip")
	t.Setenv("PMS_NOTIFY_SWEEP_BATCH", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.Equal(t, "skip", cfg.Notify.MentionPolicy)
	assert.Equal(t, 25, cfg.Notify.SweepBatch)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("PMS_AUTH_JWT_SECRET", testSecret)
	t.Setenv("PMS_DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "validation"), "error should mention validation: %v", err)
}

func TestLoad_ShortJWTSecret(t *testing.T) {
	t.Setenv("PMS_DATABASE_URL", "postgres://localhost:5432/planhub_test")
	t.Setenv("PMS_AUTH_JWT_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidMentionPolicy(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PMS_NOTIFY_MENTION_POLICY", "last")

	_, err := Load()
	require.Error(t, err)
}
