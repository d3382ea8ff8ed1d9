package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix for every setting,
// e.g. GTCLICKS_DB_HOST.
const Prefix = "GTCLICKS"

type Config struct {
	App         App
	DB          DB
	Redis       Redis
	JWT         JWT
	Stripe      Stripe
	MercadoPago MercadoPago
	GCP         GCP
	Outbox      Outbox
	Cron        Cron
	Flags       Flags
}

type App struct {
	Name            string        `envconfig:"APP_NAME" default:"settlement-service"`
	Env             string        `envconfig:"APP_ENV" default:"development"`
	Port            int           `envconfig:"APP_PORT" default:"8080"`
	LogLevel        string        `envconfig:"APP_LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"15s"`
	ReadTimeout     time.Duration `envconfig:"APP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
}

type DB struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"settlement"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
}

func (d DB) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type Redis struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type JWT struct {
	Secret   string        `envconfig:"JWT_SECRET" default:""`
	Issuer   string        `envconfig:"JWT_ISSUER" default:"gtclicks"`
	Audience string        `envconfig:"JWT_AUDIENCE" default:"settlement"`
	TTL      time.Duration `envconfig:"JWT_TTL" default:"24h"`
}

type Stripe struct {
	APIKey        string `envconfig:"STRIPE_API_KEY" default:""`
	WebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" default:""`
}

type MercadoPago struct {
	AccessToken   string        `envconfig:"MERCADOPAGO_ACCESS_TOKEN" default:""`
	WebhookSecret string        `envconfig:"MERCADOPAGO_WEBHOOK_SECRET" default:""`
	BaseURL       string        `envconfig:"MERCADOPAGO_BASE_URL" default:"https://api.mercadopago.com"`
	HTTPTimeout   time.Duration `envconfig:"MERCADOPAGO_HTTP_TIMEOUT" default:"10s"`
}

type GCP struct {
	ProjectID           string `envconfig:"GCP_PROJECT_ID" default:""`
	SettlementTopic     string `envconfig:"GCP_SETTLEMENT_TOPIC" default:"settlement-events"`
	SettlementSub       string `envconfig:"GCP_SETTLEMENT_SUB" default:"settlement-events-sub"`
	PubSubEmulatorHost  string `envconfig:"GCP_PUBSUB_EMULATOR_HOST" default:""`
	CredentialsFilePath string `envconfig:"GCP_CREDENTIALS_FILE" default:""`
}

type Outbox struct {
	PollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	BatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	MaxAttempts  int           `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"8"`
}

type Cron struct {
	Interval            time.Duration `envconfig:"CRON_INTERVAL" default:"1h"`
	LockTTL             time.Duration `envconfig:"CRON_LOCK_TTL" default:"10m"`
	OutboxRetentionDays int           `envconfig:"CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	AuditBatchSize      int           `envconfig:"CRON_AUDIT_BATCH_SIZE" default:"200"`
}

type Flags struct {
	AutoMigrate       bool    `envconfig:"FLAG_AUTO_MIGRATE" default:"false"`
	UseSQLite         bool    `envconfig:"FLAG_USE_SQLITE" default:"false"`
	DefaultFeePercent float64 `envconfig:"DEFAULT_FEE_PERCENT" default:"15"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("process config: %w", err)
	}

	if cfg.App.Env == "production" {
		if cfg.JWT.Secret == "" {
			return nil, fmt.Errorf("GTCLICKS_JWT_SECRET is required in production")
		}
		if cfg.Flags.UseSQLite {
			return nil, fmt.Errorf("sqlite is not supported in production")
		}
	}
	if cfg.Flags.DefaultFeePercent < 0 || cfg.Flags.DefaultFeePercent > 100 {
		return nil, fmt.Errorf("default fee percent out of range: %v", cfg.Flags.DefaultFeePercent)
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
