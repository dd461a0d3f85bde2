package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/portfolio-engine/internal/apperrors"
	"github.com/ndewijer/portfolio-engine/internal/currency"
)

// clearEnv blanks every variable Load reads so the host environment does not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "SERVER_HOST", "DB_PATH", "CORS_ALLOWED_ORIGINS",
		"REFERENCE_CURRENCY", "RATE_FALLBACK_DAYS", "DEFAULT_RATES",
		"UPCOMING_LIMIT", "ENGINE_WORKERS", "LOG_LEVEL", "LOG_FORMAT",
		"STATS_CACHE_TTL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:5001", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "ARS", cfg.Engine.ReferenceCurrency)
	assert.Equal(t, currency.DefaultFallbackDays, cfg.Engine.FallbackDays)
	assert.Equal(t, 200, cfg.Engine.UpcomingLimit)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, 30*time.Second, cfg.Engine.CacheTTL)
	assert.Equal(t, 20.0, cfg.Server.RateLimit)
	assert.Equal(t, 40, cfg.Server.RateBurst)
	assert.Empty(t, cfg.Engine.DefaultRates)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("REFERENCE_CURRENCY", "usd")
	t.Setenv("RATE_FALLBACK_DAYS", "5")
	t.Setenv("DEFAULT_RATES", "USD/ARS=1000, EUR/ARS=1100.5")
	t.Setenv("ENGINE_WORKERS", "8")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("STATS_CACHE_TTL", "0")
	t.Setenv("RATE_LIMIT_RPS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "USD", cfg.Engine.ReferenceCurrency)
	assert.Equal(t, 5, cfg.Engine.FallbackDays)
	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Zero(t, cfg.Engine.CacheTTL)
	assert.Zero(t, cfg.Server.RateLimit)

	require.Len(t, cfg.Engine.DefaultRates, 2)
	usd := cfg.Engine.DefaultRates[currency.NewPair("ARS", "USD")]
	assert.True(t, usd.Equal(decimal.NewFromInt(1000)))
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non numeric fallback", "RATE_FALLBACK_DAYS", "ten"},
		{"negative fallback", "RATE_FALLBACK_DAYS", "-1"},
		{"zero workers", "ENGINE_WORKERS", "0"},
		{"zero upcoming limit", "UPCOMING_LIMIT", "0"},
		{"unknown reference currency", "REFERENCE_CURRENCY", "XXQ"},
		{"unknown log level", "LOG_LEVEL", "trace"},
		{"unknown log format", "LOG_FORMAT", "xml"},
		{"malformed cache ttl", "STATS_CACHE_TTL", "soon"},
		{"negative rate limit", "RATE_LIMIT_RPS", "-2"},
		{"zero burst", "RATE_LIMIT_BURST", "0"},
		{"malformed default rate", "DEFAULT_RATES", "USD/ARS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseDefaultRates(t *testing.T) {
	rates, err := ParseDefaultRates("")
	require.NoError(t, err)
	assert.Empty(t, rates)

	_, err = ParseDefaultRates("USD/ARS=0")
	assert.Error(t, err, "rates must be positive")

	_, err = ParseDefaultRates("USD-ARS=10")
	assert.Error(t, err)

	_, err = ParseDefaultRates("USD/ZZZ=10")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCurrency)
}
