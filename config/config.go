package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"rafflehouse/database"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// HTTP server
	HTTPAddr           string
	CORSAllowedOrigins []string

	// Database configuration
	DatabaseURL  string
	DatabaseName string
	AutoMigrate  bool // apply pending migrations on startup

	// Identity and admin gate
	JWTSecret   string
	AdminSecret string

	// Payment provider
	PaymentBaseURL          string
	PaymentAPIKey           string
	PaymentWebhookSecret    string
	PaymentCurrency         string
	PaymentSuccessURL       string
	PaymentCancelURL        string
	PaymentRequestsPerSec   int
	PaymentReconcileAfter   time.Duration
	PaymentWebhookTolerance time.Duration

	// Raffle rules
	InstantWinOdds           int64 // 1-in-N chance per ticket
	DefaultMaxTicketsPerUser int
	TicketNumberMaxRounds    int

	// Messaging
	NATSServers string // comma-separated, empty disables NATS

	// Winner announcements
	DiscordWebhookURL string

	// Rate limiting
	RedisAddr          string // empty falls back to in-process limiting
	RateLimitCapacity  int
	RateLimitRefill    int
	RateLimitInterval  time.Duration
	RateLimitKeyPrefix string

	// Background jobs
	ReconcileSchedule string
	ExpirySchedule    string

	// Logging
	LogLevel  string
	LogFormat string

	// Environment
	Environment string // "development", "production" or "test"
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
		instance, err = load()
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

// NATSEnabled reports whether events should be shipped to NATS
func (c *Config) NATSEnabled() bool {
	return strings.TrimSpace(c.NATSServers) != ""
}

// load loads configuration from environment variables, reading a .env file first if present
func load() (*Config, error) {
	// A missing .env is normal in containers
	_ = godotenv.Load()

	config := &Config{
		HTTPAddr:           getEnvWithDefault("HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),
		AutoMigrate:  getEnvBool("AUTO_MIGRATE", false),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		AdminSecret: os.Getenv("ADMIN_SECRET"),

		PaymentBaseURL:          getEnvWithDefault("PAYMENT_BASE_URL", "https://api.stripe.com"),
		PaymentAPIKey:           os.Getenv("PAYMENT_API_KEY"),
		PaymentWebhookSecret:    os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		PaymentCurrency:         getEnvWithDefault("PAYMENT_CURRENCY", "gbp"),
		PaymentSuccessURL:       getEnvWithDefault("PAYMENT_SUCCESS_URL", "http://localhost:3000/payment/success?session_id={CHECKOUT_SESSION_ID}"),
		PaymentCancelURL:        getEnvWithDefault("PAYMENT_CANCEL_URL", "http://localhost:3000/payment/cancel"),
		PaymentRequestsPerSec:   getEnvInt("PAYMENT_REQUESTS_PER_SEC", 20),
		PaymentReconcileAfter:   getEnvDuration("PAYMENT_RECONCILE_AFTER", 2*time.Minute),
		PaymentWebhookTolerance: getEnvDuration("PAYMENT_WEBHOOK_TOLERANCE", 5*time.Minute),

		InstantWinOdds:           int64(getEnvInt("INSTANT_WIN_ODDS", 50)),
		DefaultMaxTicketsPerUser: getEnvInt("DEFAULT_MAX_TICKETS_PER_USER", 10),
		TicketNumberMaxRounds:    getEnvInt("TICKET_NUMBER_MAX_ROUNDS", 1000),

		NATSServers: os.Getenv("NATS_SERVERS"),

		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),

		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RateLimitCapacity:  getEnvInt("RATE_LIMIT_CAPACITY", 60),
		RateLimitRefill:    getEnvInt("RATE_LIMIT_REFILL", 1),
		RateLimitInterval:  getEnvDuration("RATE_LIMIT_INTERVAL", time.Second),
		RateLimitKeyPrefix: getEnvWithDefault("RATE_LIMIT_PREFIX", "rl:raffle"),

		ReconcileSchedule: getEnvWithDefault("RECONCILE_SCHEDULE", "@every 1m"),
		ExpirySchedule:    getEnvWithDefault("EXPIRY_SCHEDULE", "@every 1m"),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		if config.AdminSecret == "" {
			return nil, fmt.Errorf("ADMIN_SECRET is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	if config.InstantWinOdds < 1 {
		return nil, fmt.Errorf("INSTANT_WIN_ODDS must be at least 1")
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blanks
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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
		HTTPAddr:                 ":0",
		CORSAllowedOrigins:       []string{"*"},
		JWTSecret:                "test-jwt-secret",
		AdminSecret:              "test-admin-secret",
		PaymentCurrency:          "gbp",
		PaymentWebhookSecret:     "whsec_test",
		PaymentRequestsPerSec:    100,
		PaymentReconcileAfter:    time.Minute,
		PaymentWebhookTolerance:  5 * time.Minute,
		InstantWinOdds:           50,
		DefaultMaxTicketsPerUser: 10,
		TicketNumberMaxRounds:    1000,
		RateLimitCapacity:        1000,
		RateLimitRefill:          100,
		RateLimitInterval:        time.Second,
		RateLimitKeyPrefix:       "rl:test",
		ReconcileSchedule:        "@every 1m",
		ExpirySchedule:           "@every 1m",
		LogLevel:                 "debug",
		LogFormat:                "text",
		Environment:              "test",
	}
}
