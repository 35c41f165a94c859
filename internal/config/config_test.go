package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arran4/quotecard"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.Scale)
	assert.Equal(t, 16, cfg.QueueSize)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, quotecard.DefaultSettings(), cfg.Defaults)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("QUOTECARD_SCALE", "0.5")
	t.Setenv("QUOTECARD_QUEUE_SIZE", "4")
	t.Setenv("QUOTECARD_DEFAULT_THEME", "noir")
	t.Setenv("QUOTECARD_DEFAULT_ASPECT", "Landscape")
	t.Setenv("QUOTECARD_DEFAULT_FORMAT", "jpg")
	t.Setenv("QUOTECARD_INCLUDE_ATTRIBUTION", "false")
	t.Setenv("QUOTECARD_CORS_ORIGINS", "chrome-extension://abc, https://example.com")
	t.Setenv("QUOTECARD_CACHE_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Scale)
	assert.Equal(t, 4, cfg.QueueSize)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, quotecard.Settings{
		ThemeID:            "noir",
		AspectRatio:        quotecard.Landscape,
		ExportFormat:       quotecard.JPEG,
		IncludeAttribution: false,
	}, cfg.Defaults)
	assert.Equal(t, []string{"chrome-extension://abc", "https://example.com"}, cfg.CORSOrigins)
}

func TestLoadIgnoresUnparsableNumbers(t *testing.T) {
	t.Setenv("QUOTECARD_QUEUE_SIZE", "many")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.QueueSize)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"QUOTECARD_SCALE", "-1"},
		{"QUOTECARD_QUEUE_SIZE", "0"},
		{"QUOTECARD_RATE_BURST", "0"},
		{"QUOTECARD_DEFAULT_ASPECT", "round"},
		{"QUOTECARD_DEFAULT_FORMAT", "gif"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
