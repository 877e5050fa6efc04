package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/designstudio/pkg/config"
)

// Storage backends.
const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`

	// Cart storage
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"redis"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass      string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	CartKeyPrefix  string `env:"CART_KEY_PREFIX" envDefault:"designStudioCart"`
	GuestCartKey   string `env:"GUEST_CART_KEY" envDefault:"designStudioGuestCart"`
	// Cart TTL in hours; 0 keeps carts until they are cleared.
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"0"`

	// Firebase / Firestore. An empty project id disables sign-in and remote
	// order submission.
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID" envDefault:""`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE" envDefault:""`
	OrdersCollection        string `env:"FIRESTORE_ORDERS_COLLECTION" envDefault:"orders"`
	UsersCollection         string `env:"FIRESTORE_USERS_COLLECTION" envDefault:"users"`

	// Remote order submission
	OrderSubmitTimeout    time.Duration `env:"ORDER_SUBMIT_TIMEOUT" envDefault:"5s"`
	BreakerTimeout        time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerFailureRatio   float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests    uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`
	BreakerHalfOpenProbes uint32        `env:"BREAKER_HALF_OPEN_REQUESTS" envDefault:"1"`

	// Kafka
	EventsEnabled bool     `env:"EVENTS_ENABLED" envDefault:"false"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Where a placed order continues to.
	PaymentPage string `env:"PAYMENT_PAGE" envDefault:"payment.html"`

	// Guest profile cookie
	ProfileCookieSecure bool `env:"PROFILE_COOKIE_SECURE" envDefault:"false"`

	// Origins allowed to call the API from the browser; empty allows any.
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CartTTLDuration returns the cart expiry as a duration.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

// FirebaseEnabled reports whether a Firebase project is configured.
func (c *Config) FirebaseEnabled() bool {
	return c.FirebaseProjectID != ""
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.StorageBackend != StorageRedis && c.StorageBackend != StorageMemory {
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageRedis, StorageMemory, c.StorageBackend)
	}
	if c.StorageBackend == StorageRedis && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis storage backend")
	}
	if c.CartKeyPrefix == "" || c.GuestCartKey == "" {
		return fmt.Errorf("CART_KEY_PREFIX and GUEST_CART_KEY must not be empty")
	}
	if c.CartTTL < 0 {
		return fmt.Errorf("CART_TTL_HOURS must not be negative, got %d", c.CartTTL)
	}
	if c.OrderSubmitTimeout <= 0 {
		return fmt.Errorf("ORDER_SUBMIT_TIMEOUT must be positive, got %s", c.OrderSubmitTimeout)
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1.0 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0.0, 1.0], got %f", c.BreakerFailureRatio)
	}
	if c.EventsEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}
