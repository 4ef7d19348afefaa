package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TOKEN_API", "PORT", "GIN_MODE", "LOG_LEVEL", "LOG_JSON",
		"GEMINI_API_KEY", "API_KEY", "GOOGLE_API_KEY", "GEMINI_MODELS", "GEMINI_RPM",
		"CATALOG_PATH", "CACHE_TTL", "DB_HOST", "DB_PORT", "DB_SSLMODE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadRequiresToken(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingToken))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_API", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultGeminiModels, cfg.GeminiModels)
	assert.Equal(t, 10, cfg.GeminiRPM)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.DB.Enabled())
	assert.Equal(t, "disable", cfg.DB.SSLMode)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_API", "secret")
	t.Setenv("LOG_JSON", "true")
	t.Setenv("GOOGLE_API_KEY", "from-google")
	t.Setenv("GEMINI_MODELS", " model-a , ,model-b ")
	t.Setenv("GEMINI_RPM", "60")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("DB_HOST", "localhost")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.LogJSON)
	assert.Equal(t, "from-google", cfg.GeminiAPIKey)
	assert.Equal(t, []string{"model-a", "model-b"}, cfg.GeminiModels)
	assert.Equal(t, 60, cfg.GeminiRPM)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.DB.Enabled())
}

func TestGeminiKeyPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_API", "secret")
	t.Setenv("API_KEY", "generic")
	t.Setenv("GEMINI_API_KEY", "gemini")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.GeminiAPIKey)
}
