package initializers

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Port    string `env:"PORT,default=8000"`
	GinMode string `env:"GIN_MODE,default=debug"`

	DBURL         string        `env:"DB_URL"`
	MongoURI      string        `env:"MONGODB_URI"`
	MongoDatabase string        `env:"MONGODB_DATABASE,default=churchly"`
	MongoTimeout  time.Duration `env:"MONGODB_TIMEOUT,default=10s"`

	Secret   string        `env:"SECRET"`
	TokenTTL time.Duration `env:"TOKEN_TTL,default=24h"`

	ResendAPIKey    string `env:"RESEND_API_KEY"`
	ResendFromEmail string `env:"RESEND_FROM_EMAIL,default=Churchly <no-reply@churchly.app>"`

	FirebaseServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	PrayerRequestTTL      time.Duration `env:"PRAYER_REQUEST_TTL,default=24h"`
	EventReminderSchedule string        `env:"EVENT_REMINDER_SCHEDULE,default=@every 1h"`
	ResetCleanupSchedule  string        `env:"RESET_CLEANUP_SCHEDULE,default=@every 30m"`
}

// Cfg is populated by LoadEnv.
var Cfg = DefaultConfig()

// DefaultConfig mirrors the env tag defaults so code paths that never call
// LoadEnv (tests, the client package) still see sane values.
func DefaultConfig() *Config {
	return &Config{
		Port:                  "8000",
		GinMode:               "debug",
		MongoDatabase:         "churchly",
		MongoTimeout:          10 * time.Second,
		TokenTTL:              24 * time.Hour,
		ResendFromEmail:       "Churchly <no-reply@churchly.app>",
		LogLevel:              "info",
		LogFormat:             "text",
		PrayerRequestTTL:      24 * time.Hour,
		EventReminderSchedule: "@every 1h",
		ResetCleanupSchedule:  "@every 30m",
	}
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var missing []string
	if c.DBURL == "" {
		missing = append(missing, "DB_URL")
	}
	if c.MongoURI == "" {
		missing = append(missing, "MONGODB_URI")
	}
	if c.Secret == "" {
		missing = append(missing, "SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	if c.PrayerRequestTTL < time.Minute {
		return fmt.Errorf("PRAYER_REQUEST_TTL must be at least 1m, got %s", c.PrayerRequestTTL)
	}
	return nil
}

// LoadEnv reads .env (if present) and the process environment into Cfg.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		Log.Debug("no .env file found, using process environment")
	}

	cfg, err := LoadConfig()
	if err != nil {
		Log.WithError(err).Fatal("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		Log.WithError(err).Fatal("invalid configuration")
	}

	Cfg = cfg
}
