package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"cleaner_reminder_service/internal/schedule"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres" validate:"oneof=postgres mongo"`
	DatabaseURL   string `envconfig:"DATABASE_URL" validate:"required_if=StorageDriver postgres"`
	MongoURI      string `envconfig:"MONGO_URI" validate:"required_if=StorageDriver mongo"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"cleaning"`

	Timezone             string        `envconfig:"TIMEZONE" default:"Local"`
	CronSpecReminder     string        `envconfig:"REMINDER_CRON_SPEC" default:"@every 1m" validate:"required"`
	LeadTime             time.Duration `envconfig:"REMINDER_LEAD_TIME" default:"24h" validate:"gt=0"`
	Lookback             time.Duration `envconfig:"REMINDER_LOOKBACK" default:"1h" validate:"gte=0"`
	Lookahead            time.Duration `envconfig:"REMINDER_LOOKAHEAD" default:"0s" validate:"gte=0"`
	DefaultPreferredTime string        `envconfig:"REMINDER_DEFAULT_TIME" default:"09:00"`
	RunTimeout           time.Duration `envconfig:"REMINDER_RUN_TIMEOUT" default:"5m" validate:"gt=0"`
	DispatchConcurrency  int           `envconfig:"DISPATCH_CONCURRENCY" default:"1" validate:"min=1,max=32"`
	EligibleBookingTypes []string      `envconfig:"ELIGIBLE_BOOKING_TYPES" default:"residential,manual" validate:"min=1,dive,required"`

	Notifier           string  `envconfig:"NOTIFIER" default:"smtp" validate:"oneof=smtp log"`
	SMTPHost           string  `envconfig:"SMTP_HOST" validate:"required_if=Notifier smtp"`
	SMTPPort           string  `envconfig:"SMTP_PORT" default:"465"`
	SMTPUser           string  `envconfig:"SMTP_USER"`
	SMTPPass           string  `envconfig:"SMTP_PASS"`
	SMTPFrom           string  `envconfig:"SMTP_FROM"`
	EmailRatePerSecond float64 `envconfig:"EMAIL_RATE_PER_SECOND" default:"5" validate:"gt=0"`
	EmailBurst         int     `envconfig:"EMAIL_BURST" default:"5" validate:"min=1"`

	// Ops alerts are disabled while TelegramToken is empty.
	TelegramToken   string `envconfig:"TELEGRAM_TOKEN"`
	AdminTelegramID int64  `envconfig:"ADMIN_TELEGRAM_ID" validate:"required_with=TelegramToken"`

	MetricsAddr string `envconfig:"METRICS_ADDR"`

	location    *time.Location
	defaultTime schedule.TimeOfDay
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Environment = strings.ToLower(cfg.Environment)
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	cfg.Notifier = strings.ToLower(cfg.Notifier)
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUser
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var err error
	cfg.location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.defaultTime, err = schedule.ParseTimeOfDay(cfg.DefaultPreferredTime)
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_DEFAULT_TIME: %w", err)
	}

	return cfg, nil
}

// Location is the zone in which booking dates and times are interpreted.
func (c *AppConfig) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// DefaultTime is the base time for bookings without a preferred time.
func (c *AppConfig) DefaultTime() schedule.TimeOfDay {
	return c.defaultTime
}

// Windows returns the reminder window settings.
func (c *AppConfig) Windows() schedule.WindowConfig {
	return schedule.WindowConfig{
		LeadTime:  c.LeadTime,
		Lookback:  c.Lookback,
		Lookahead: c.Lookahead,
	}
}

// AlertsEnabled reports whether Telegram ops alerts are configured.
func (c *AppConfig) AlertsEnabled() bool {
	return c.TelegramToken != ""
}
