package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// HTTP server configuration
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// Identity provider: HS256 secret used to sign session tokens
	JWTSecret string `env:"JWT_SECRET"`

	// Match configuration
	MatchTTL              time.Duration `env:"MATCH_TTL" envDefault:"30m"`
	Rake                  Fraction      `env:"RAKE_FRACTION" envDefault:"0.15"`
	SweepInterval         time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	ExpiryRefundEntryFees bool          `env:"EXPIRY_REFUND_ENTRY_FEES" envDefault:"false"`

	// Optional integrations, disabled when empty
	NATSURL                 string `env:"NATS_URL"`
	RedisURL                string `env:"REDIS_URL"`
	DiscordToken            string `env:"DISCORD_TOKEN"`
	DiscordDisputeChannelID string `env:"DISCORD_DISPUTE_CHANNEL_ID"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// Fraction is a decimal share such as 0.15, read from the environment with surrounding
// whitespace ignored
type Fraction struct {
	decimal.Decimal
}

// UnmarshalText parses a trimmed decimal string
func (f *Fraction) UnmarshalText(text []byte) error {
	d, err := decimal.NewFromString(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", string(text), err)
	}
	f.Decimal = d
	return nil
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from a local .env file (if any) and the environment
func load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Rake.IsNegative() || c.Rake.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("RAKE_FRACTION must be in [0, 1), got %s", c.Rake)
	}
	if c.MatchTTL <= 0 {
		return fmt.Errorf("MATCH_TTL must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}

	if c.Environment != "test" {
		// Validate required configuration
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
	}

	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DisputeNotificationsEnabled reports whether disputes are forwarded to Discord
func (c *Config) DisputeNotificationsEnabled() bool {
	return c.DiscordToken != "" && c.DiscordDisputeChannelID != ""
}
