package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config is the process-wide configuration. It is built once at start and
// passed by value to the components that need it.
type Config struct {
	Port               string   `env:"PORT" envDefault:"8080"`
	AppURL             string   `env:"APP_URL" envDefault:"http://localhost:8080"`
	WidgetURL          string   `env:"FRONTEND_URL,required"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	EncryptionKey      string   `env:"ENCRYPTION_KEY,required"`

	Shopify ShopifyConfig
	Store   StoreConfig
	OAuth   OAuthConfig
}

// ShopifyConfig holds the app credentials issued by Shopify
type ShopifyConfig struct {
	APIKey         string   `env:"SHOPIFY_API_KEY,required"`
	APISecret      string   `env:"SHOPIFY_API_SECRET,required"`
	Scopes         []string `env:"SCOPES" envSeparator:","`
	APIVersion     string   `env:"SHOPIFY_API_VERSION" envDefault:"2023-10"`
	VerifyCallback bool     `env:"SHOPIFY_VERIFY_CALLBACK" envDefault:"true"`
}

// StoreConfig selects and addresses the persistent store
type StoreConfig struct {
	Driver        string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	MongoURI      string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"subete"`
}

// OAuthConfig controls the install nonce store
type OAuthConfig struct {
	RedisURL string        `env:"REDIS_URL"`
	StateTTL time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
}

// Load reads an optional .env file and parses the environment
func Load(logger zerolog.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg(".env file not found, using process environment")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", DriverPostgres)
		}
	case DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil || len(key) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be 64 hex characters")
	}

	if c.OAuth.StateTTL <= 0 {
		return fmt.Errorf("OAUTH_STATE_TTL must be positive")
	}
	return nil
}

// RedirectURI is the fixed OAuth callback registered with Shopify
func (c Config) RedirectURI() string {
	return strings.TrimSuffix(c.AppURL, "/") + "/auth/callback"
}

// WidgetBaseURL is the widget host without a trailing slash
func (c Config) WidgetBaseURL() string {
	return strings.TrimSuffix(c.WidgetURL, "/")
}

// Level returns the zerolog level, falling back to info
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
