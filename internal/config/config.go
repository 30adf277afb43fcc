package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	apperrors "github.com/jwalitptl/devlink-notifier/pkg/errors"
	"github.com/jwalitptl/devlink-notifier/pkg/validator"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

type AppConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst       int           `mapstructure:"rate_burst" validate:"gte=0"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host" validate:"required_without=URL"`
	Port            int           `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name" validate:"required_without=URL"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the connection string, preferring an explicit URL.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode)
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" validate:"omitempty,url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type SMTPConfig struct {
	Host               string        `mapstructure:"host" validate:"required,hostname|ip"`
	Port               int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	User               string        `mapstructure:"user"`
	Password           string        `mapstructure:"password" validate:"required_with=User"`
	From               string        `mapstructure:"from" validate:"required,email"`
	FromName           string        `mapstructure:"from_name"`
	TLSMode            string        `mapstructure:"tls_mode" validate:"omitempty,oneof=auto starttls ssl insecure"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=console json"`
}

type SchedulerConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret" validate:"required,min=16"`
	JWTIssuer       string        `mapstructure:"jwt_issuer" validate:"required"`
	RunTimeout      time.Duration `mapstructure:"run_timeout" validate:"gt=0"`
	LedgerRetention time.Duration `mapstructure:"ledger_retention" validate:"gt=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
	HealthPort      int           `mapstructure:"health_port" validate:"min=1,max=65535"`
	UserCacheTTL    time.Duration `mapstructure:"user_cache_ttl" validate:"gt=0"`
	BulkConcurrency int           `mapstructure:"bulk_concurrency" validate:"min=1"`
}

// JobSchedule is the per-job trigger and deduplication setting.
type JobSchedule struct {
	Cron              string        `mapstructure:"cron" validate:"omitempty,cron"`
	IdempotencyWindow time.Duration `mapstructure:"idempotency_window" validate:"gte=0"`
}

type JobsConfig struct {
	DigestWindow            time.Duration          `mapstructure:"digest_window" validate:"gt=0"`
	TestimonialMinAge       time.Duration          `mapstructure:"testimonial_min_age" validate:"gt=0"`
	ProfileReminderMinAge   time.Duration          `mapstructure:"profile_reminder_min_age" validate:"gt=0"`
	ProfileReminderMaxAge   time.Duration          `mapstructure:"profile_reminder_max_age" validate:"gtfield=ProfileReminderMinAge"`
	ProfileMissingThreshold int                    `mapstructure:"profile_missing_threshold" validate:"min=1"`
	InactivityPeriod        time.Duration          `mapstructure:"inactivity_period" validate:"gt=0"`
	ReEngagementLimit       int                    `mapstructure:"re_engagement_limit" validate:"min=1"`
	ReEngagementInterval    time.Duration          `mapstructure:"re_engagement_interval" validate:"gte=0"`
	CollaborationMinAge     time.Duration          `mapstructure:"collaboration_min_age" validate:"gt=0"`
	Schedules               map[string]JobSchedule `mapstructure:"schedules" validate:"dive"`
}

// envOverrides are the variables the main DevLink deployment already defines.
type envOverrides struct {
	BaseURL         string `envconfig:"NEXTAUTH_URL"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	RedisURL        string `envconfig:"REDIS_URL"`
	SMTPHost        string `envconfig:"SMTP_HOST"`
	SMTPPort        int    `envconfig:"SMTP_PORT"`
	SMTPUser        string `envconfig:"SMTP_USER"`
	SMTPPassword    string `envconfig:"SMTP_PASSWORD"`
	FromEmail       string `envconfig:"FROM_EMAIL"`
	FromName        string `envconfig:"FROM_NAME"`
	SchedulerSecret string `envconfig:"SCHEDULER_JWT_SECRET"`
}

// Default returns the values the notifier runs with when a key is absent.
func Default() Config {
	return Config{
		App: AppConfig{Name: "devlink-notifier"},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       5,
			RateBurst:       10,
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		SMTP: SMTPConfig{
			Port:    587,
			TLSMode: "auto",
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Scheduler: SchedulerConfig{
			JWTIssuer:       "devlink-cron",
			RunTimeout:      30 * time.Minute,
			LedgerRetention: 90 * 24 * time.Hour,
			CleanupInterval: 24 * time.Hour,
			HealthPort:      8081,
			UserCacheTTL:    5 * time.Minute,
			BulkConcurrency: 10,
		},
		Jobs: JobsConfig{
			DigestWindow:            7 * 24 * time.Hour,
			TestimonialMinAge:       3 * 24 * time.Hour,
			ProfileReminderMinAge:   7 * 24 * time.Hour,
			ProfileReminderMaxAge:   8 * 24 * time.Hour,
			ProfileMissingThreshold: 2,
			InactivityPeriod:        30 * 24 * time.Hour,
			ReEngagementLimit:       100,
			ReEngagementInterval:    100 * time.Millisecond,
			CollaborationMinAge:     3 * 24 * time.Hour,
			Schedules: map[string]JobSchedule{
				"weekly-digest":                {Cron: "0 9 * * 1"},
				"testimonial-reminders":        {Cron: "0 10 * * *"},
				"incomplete-profile-reminders": {Cron: "0 11 * * *"},
				"re-engagement":                {Cron: "0 12 * * 3"},
				"collaboration-reminders":      {Cron: "0 13 * * *"},
			},
		},
	}
}

// LoadConfig reads config.yml (or CONFIG_FILE), overlays the environment
// and validates the result.
func LoadConfig() (*Config, error) {
	v := viper.New()
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")           // current directory
		v.AddConfigPath("./config")    // config subdirectory
		v.AddConfigPath("/app/config") // container config directory
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := Default()
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyEnv overlays the deployment environment on top of the file.
func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	overlay(&cfg.App.BaseURL, env.BaseURL)
	overlay(&cfg.Database.URL, env.DatabaseURL)
	overlay(&cfg.Redis.URL, env.RedisURL)
	overlay(&cfg.SMTP.Host, env.SMTPHost)
	overlay(&cfg.SMTP.User, env.SMTPUser)
	overlay(&cfg.SMTP.Password, env.SMTPPassword)
	overlay(&cfg.SMTP.From, env.FromEmail)
	overlay(&cfg.SMTP.FromName, env.FromName)
	overlay(&cfg.Scheduler.JWTSecret, env.SchedulerSecret)
	if env.SMTPPort != 0 {
		cfg.SMTP.Port = env.SMTPPort
	}
	return nil
}

func overlay(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

var validate = validator.New()

// Validate checks every field eagerly and reports all problems at once.
func (c *Config) Validate() error {
	if err := validate.Validate(c); err != nil {
		return apperrors.Config(err)
	}
	return nil
}
