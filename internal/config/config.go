// Package config loads quotecard settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arran4/quotecard"
)

const envPrefix = "QUOTECARD_"

// Config is read once at startup and treated as immutable.
type Config struct {
	// Resources
	ThemesPath string
	AssetsDir  string
	FontsDir   string
	CacheTTL   time.Duration

	// Rendering
	Scale     float64
	QueueSize int
	Defaults  quotecard.Settings

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string

	// Server
	Port        string
	RateLimit   float64 // requests per second per client
	RateBurst   int
	CORSOrigins []string
}

// Load reads Config from QUOTECARD_* environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ThemesPath: getEnvString("THEMES_PATH", ""),
		AssetsDir:  getEnvString("ASSETS_DIR", ""),
		FontsDir:   getEnvString("FONTS_DIR", ""),
		CacheTTL:   getEnvDuration("CACHE_TTL", time.Hour),

		Scale:     getEnvFloat("SCALE", 1),
		QueueSize: getEnvInt("QUEUE_SIZE", 16),
		Defaults: quotecard.Settings{
			ThemeID:            getEnvString("DEFAULT_THEME", "scholarly"),
			AspectRatio:        quotecard.AspectRatio(getEnvString("DEFAULT_ASPECT", string(quotecard.Portrait))),
			ExportFormat:       quotecard.ExportFormat(getEnvString("DEFAULT_FORMAT", string(quotecard.PNG))),
			IncludeAttribution: getEnvBool("INCLUDE_ATTRIBUTION", true),
		},

		LogLevel:  getEnvString("LOG_LEVEL", "info"),
		LogFormat: getEnvString("LOG_FORMAT", "text"),
		LogFile:   getEnvString("LOG_FILE", ""),

		Port:        getEnvString("PORT", "8080"),
		RateLimit:   getEnvFloat("RATE_LIMIT", 5),
		RateBurst:   getEnvInt("RATE_BURST", 10),
		CORSOrigins: splitList(getEnvString("CORS_ORIGINS", "*")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and normalizes the default settings.
func (c *Config) Validate() error {
	var problems []string
	if c.Scale <= 0 {
		problems = append(problems, fmt.Sprintf("%sSCALE must be positive, got %v", envPrefix, c.Scale))
	}
	if c.QueueSize < 1 {
		problems = append(problems, fmt.Sprintf("%sQUEUE_SIZE must be at least 1, got %d", envPrefix, c.QueueSize))
	}
	if c.RateBurst < 1 {
		problems = append(problems, fmt.Sprintf("%sRATE_BURST must be at least 1, got %d", envPrefix, c.RateBurst))
	}
	defaults, err := c.Defaults.Normalize()
	if err != nil {
		problems = append(problems, "default settings: "+err.Error())
	} else {
		c.Defaults = defaults
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := getEnvString(key, "")
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := getEnvString(key, "")
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := getEnvString(key, "")
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := getEnvString(key, "")
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
