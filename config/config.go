package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"

	"monkeybet/database"
)

// Config holds all application configuration
type Config struct {
	// Login signature secret (the bot token issued by the chat platform)
	BotToken string `env:"BOT_TOKEN"`

	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// HTTP configuration
	HTTPPort       int    `env:"HTTP_PORT" envDefault:"8080"`
	SessionCookie  string `env:"SESSION_COOKIE" envDefault:"user_id"`
	LoginRedirect  string `env:"LOGIN_REDIRECT" envDefault:"/games.html"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"*"`

	// Administrators allowed to review withdrawals
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Ledger configuration
	StartingBalance   decimal.Decimal `env:"STARTING_BALANCE" envDefault:"0"`
	RepositoryTimeout time.Duration   `env:"REPOSITORY_TIMEOUT" envDefault:"5s"`

	// Maximum accepted age of a login assertion, 0 disables the check
	AuthMaxAge time.Duration `env:"AUTH_MAX_AGE" envDefault:"24h"`

	// NATS configuration (empty disables event forwarding)
	NATSServers string `env:"NATS_SERVERS"`

	// Discord webhook for admin notifications (empty disables)
	DiscordWebhookID    string `env:"DISCORD_WEBHOOK_ID"`
	DiscordWebhookToken string `env:"DISCORD_WEBHOOK_TOKEN"`

	MetricsEnabled  bool          `env:"METRICS_ENABLED" envDefault:"false"`
	MetricsInterval time.Duration `env:"METRICS_INTERVAL" envDefault:"60s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = Load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsAdmin reports whether the given user may review withdrawals
func (c *Config) IsAdmin(userID int64) bool {
	return slices.Contains(c.AdminIDs, userID)
}

// DiscordWebhookEnabled reports whether admin notifications should be sent
func (c *Config) DiscordWebhookEnabled() bool {
	return c.DiscordWebhookID != "" && c.DiscordWebhookToken != ""
}

// Load parses configuration from environment variables
func Load() (*Config, error) {
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
	if c.StartingBalance.IsNegative() {
		return fmt.Errorf("STARTING_BALANCE cannot be negative")
	}
	if c.RepositoryTimeout <= 0 {
		return fmt.Errorf("REPOSITORY_TIMEOUT must be positive")
	}
	if c.AuthMaxAge < 0 {
		return fmt.Errorf("AUTH_MAX_AGE cannot be negative")
	}

	if c.Environment == "test" {
		return nil
	}

	// Validate required configuration
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}

	return nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		BotToken:          "test-bot-token",
		HTTPPort:          8080,
		SessionCookie:     "user_id",
		LoginRedirect:     "/games.html",
		AllowedOrigins:    "*",
		AdminIDs:          []int64{999999},
		StartingBalance:   decimal.Zero,
		RepositoryTimeout: 5 * time.Second,
		AuthMaxAge:        24 * time.Hour,
		MetricsInterval:   time.Minute,
		LogLevel:          "debug",
		Environment:       "test",
	}
}
