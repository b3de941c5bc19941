package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Minute, cfg.MatchTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.True(t, cfg.Rake.Equal(decimal.RequireFromString("0.15")))
	assert.False(t, cfg.ExpiryRefundEntryFees)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.DisputeNotificationsEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/postgres")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RAKE_FRACTION", " 0.10 ")
	t.Setenv("MATCH_TTL", "45m")
	t.Setenv("EXPIRY_REFUND_ENTRY_FEES", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DISCORD_DISPUTE_CHANNEL_ID", "123")

	cfg, err := load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Rake.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, 45*time.Minute, cfg.MatchTTL)
	assert.True(t, cfg.ExpiryRefundEntryFees)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.DisputeNotificationsEnabled())
}

func TestLoad_RakeFractionIgnoresSurroundingWhitespace(t *testing.T) {
	for _, raw := range []string{"0.10\n", "\t0.10", " 0.10 "} {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "test")
			t.Setenv("RAKE_FRACTION", raw)

			cfg, err := load()
			require.NoError(t, err)
			assert.True(t, cfg.Rake.Equal(decimal.RequireFromString("0.10")), "got %s", cfg.Rake)
		})
	}
}

func TestLoad_RakeFractionRejectsGarbage(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("RAKE_FRACTION", "fifteen")

	_, err := load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Rake")
}

func TestFraction_UnmarshalText(t *testing.T) {
	var f Fraction
	require.NoError(t, f.UnmarshalText([]byte("  0.25\r\n")))
	assert.True(t, f.Equal(decimal.RequireFromString("0.25")))

	assert.Error(t, f.UnmarshalText([]byte("")))
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "rake of one",
			env:  map[string]string{"ENVIRONMENT": "test", "RAKE_FRACTION": "1"},
			want: "RAKE_FRACTION",
		},
		{
			name: "negative rake",
			env:  map[string]string{"ENVIRONMENT": "test", "RAKE_FRACTION": "-0.1"},
			want: "RAKE_FRACTION",
		},
		{
			name: "zero ttl",
			env:  map[string]string{"ENVIRONMENT": "test", "MATCH_TTL": "0s"},
			want: "MATCH_TTL",
		},
		{
			name: "missing database outside tests",
			env:  map[string]string{"ENVIRONMENT": "development", "DATABASE_URL": "", "JWT_SECRET": "x"},
			want: "DATABASE_URL",
		},
		{
			name: "missing secret outside tests",
			env:  map[string]string{"ENVIRONMENT": "development", "DATABASE_URL": "postgres://db/x", "JWT_SECRET": ""},
			want: "JWT_SECRET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
