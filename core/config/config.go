package config

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig configures the bot account.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds of 0 uses the poller default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig is used when RunMode is webhook.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// FluentConfig enables shipping structured log lines to Fluent Bit.
type FluentConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"FLUENTBIT_ENABLED"`
	Host      string `yaml:"host" envconfig:"FLUENTBIT_HOST"`
	Port      int    `yaml:"port" envconfig:"FLUENTBIT_PORT"`
	TagPrefix string `yaml:"tag_prefix" envconfig:"FLUENTBIT_TAG_PREFIX"`
}

// LoggingConfig selects level, format and outputs of the logger.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile is dev, debug or prod; it picks the format when Format is empty.
	Profile string       `yaml:"profile" envconfig:"LOG_PROFILE"`
	Fluent  FluentConfig `yaml:"fluent"`
}

// Telegram update delivery modes.
const (
	RunModeLongpoll = "longpoll"
	RunModeWebhook  = "webhook"
)

// Update kinds accepted by rate_limit.exclude_updates.
const (
	UpdateCallback    = "callback"
	UpdateMessage     = "message"
	UpdateInlineQuery = "inline_query"
)

const (
	// DriverMongo stores listings in a MongoDB collection.
	DriverMongo = "mongo"
	// DriverPostgres stores listings as JSONB documents in PostgreSQL.
	DriverPostgres = "postgres"
	// DriverMemory keeps listings in process memory (development only).
	DriverMemory = "memory"
)

// RateLimitConfig throttles each user to one update per IntervalMS.
// ExcludeUpdates lists update kinds that are never throttled (see Update*).
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// MongoConfig points at the listings collection.
type MongoConfig struct {
	URI        string `yaml:"uri" envconfig:"MONGO_URI"`
	Database   string `yaml:"database" envconfig:"MONGO_DATABASE"`
	Collection string `yaml:"collection" envconfig:"COLLECTION_NAME"`
}

// PostgresConfig holds PostgreSQL connection settings for the postgres driver.
type PostgresConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// StorageConfig selects and configures the listings store.
type StorageConfig struct {
	Driver        string         `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	Mongo         MongoConfig    `yaml:"mongo"`
	Postgres      PostgresConfig `yaml:"postgres"`
	MigrationsDir string         `yaml:"migrations_dir" envconfig:"MIGRATIONS_DIR"`
}

// SessionsConfig bounds the in-memory dialogue sessions.
type SessionsConfig struct {
	IdleTTL       time.Duration `yaml:"idle_ttl" envconfig:"SESSIONS_IDLE_TTL"`
	MaxSessions   int           `yaml:"max_sessions" envconfig:"SESSIONS_MAX"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SESSIONS_SWEEP_INTERVAL"`
}

// EventsConfig enables publishing listing events to RabbitMQ.
type EventsConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"EVENTS_ENABLED"`
	URL      string `yaml:"url" envconfig:"RABBITMQ_URL"`
	Exchange string `yaml:"exchange" envconfig:"EVENTS_EXCHANGE"`
}

// HealthConfig exposes liveness/readiness probes when Listen is set.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
}

// CatalogField overrides one entry of the listing field catalog.
type CatalogField struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
}

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Storage   StorageConfig   `yaml:"storage"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Events    EventsConfig    `yaml:"events"`
	Health    HealthConfig    `yaml:"health"`
	Catalog   []CatalogField  `yaml:"catalog"`
}

// CoreConfig lets *Config satisfy the runner's ConfigCarrier.
func (c *Config) CoreConfig() *Config { return c }

// Load layers the configuration sources: a .env file in the working
// directory, the YAML file at path when set, then the process environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}

	cfg := new(Config)
	if path != "" {
		if err := readYAML(filepath.Clean(path), cfg); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}
	if cfg.Telegram.Token == "" {
		// legacy variable name
		cfg.Telegram.Token = strings.TrimSpace(os.Getenv("TOKEN"))
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Normalize validates cfg and fills in defaults. Sections are checked in
// order and the first problem is returned.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	steps := []func(*Config) error{
		normalizeTelegram,
		normalizeRateLimit,
		func(c *Config) error { return normalizeStorage(&c.Storage) },
		func(c *Config) error { normalizeSessions(&c.Sessions); return nil },
		normalizeEvents,
		normalizeLogging,
		normalizeCatalog,
	}
	for _, step := range steps {
		if err := step(cfg); err != nil {
			return err
		}
	}
	return nil
}

func normalizeTelegram(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return errors.New("telegram token is required")
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	switch mode {
	case "", "polling":
		mode = RunModeLongpoll
	}

	switch mode {
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
		}
	case RunModeWebhook:
		wh := cfg.Webhook
		switch {
		case strings.TrimSpace(wh.URL) == "":
			return errors.New("webhook.url is required in webhook mode")
		case strings.TrimSpace(wh.Listen) == "":
			return errors.New("webhook.listen is required in webhook mode")
		case wh.Port <= 0:
			return errors.New("webhook.port must be > 0 in webhook mode")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: %s, %s", cfg.Telegram.RunMode, RunModeLongpoll, RunModeWebhook)
	}
	cfg.Telegram.RunMode = mode
	return nil
}

// maxCatalogKeyBytes keeps "\ffilter|<key>" within Telegram's 64-byte
// callback data limit.
const maxCatalogKeyBytes = 56

var updateKinds = []string{UpdateCallback, UpdateMessage, UpdateInlineQuery}

func normalizeRateLimit(cfg *Config) error {
	kept := cfg.RateLimit.ExcludeUpdates[:0]
	for _, v := range cfg.RateLimit.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(v))
		if kind == "" {
			continue
		}
		if !slices.Contains(updateKinds, kind) {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: %s", v, strings.Join(updateKinds, ", "))
		}
		kept = append(kept, kind)
	}
	cfg.RateLimit.ExcludeUpdates = kept
	return nil
}

func normalizeStorage(s *StorageConfig) error {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	if driver == "" {
		driver = DriverMongo
	}

	switch driver {
	case DriverMongo:
		if strings.TrimSpace(s.Mongo.URI) == "" {
			return errors.New("storage.mongo.uri is required for the mongo driver")
		}
		if strings.TrimSpace(s.Mongo.Collection) == "" {
			return errors.New("storage.mongo.collection is required for the mongo driver")
		}
	case DriverPostgres:
		pg := &s.Postgres
		if strings.TrimSpace(pg.Host) == "" || strings.TrimSpace(pg.Name) == "" {
			return errors.New("storage.postgres.host and storage.postgres.name are required for the postgres driver")
		}
		pg.SSLMode = cmp.Or(pg.SSLMode, "disable")
		pg.Port = cmp.Or(pg.Port, "5432")
		if pg.MaxConnections <= 0 {
			pg.MaxConnections = 5
		}
		s.MigrationsDir = cmp.Or(strings.TrimSpace(s.MigrationsDir), "migrations")
	case DriverMemory:
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: %s, %s, %s", s.Driver, DriverMongo, DriverPostgres, DriverMemory)
	}
	s.Driver = driver
	return nil
}

func normalizeSessions(s *SessionsConfig) {
	if s.IdleTTL <= 0 {
		s.IdleTTL = 24 * time.Hour
	}
	if s.MaxSessions <= 0 {
		s.MaxSessions = 10000
	}
	if s.SweepInterval <= 0 {
		s.SweepInterval = 10 * time.Minute
	}
}

func normalizeEvents(cfg *Config) error {
	ev := &cfg.Events
	if !ev.Enabled {
		return nil
	}
	if strings.TrimSpace(ev.URL) == "" {
		return errors.New("events.url is required when events.enabled is true")
	}
	ev.Exchange = cmp.Or(strings.TrimSpace(ev.Exchange), "listings")
	return nil
}

func normalizeLogging(cfg *Config) error {
	fl := &cfg.Logging.Fluent
	if !fl.Enabled {
		return nil
	}
	if fl.Port <= 0 {
		fl.Port = 24224
	}
	fl.TagPrefix = cmp.Or(strings.TrimSpace(fl.TagPrefix), "realtybot")
	return nil
}

func normalizeCatalog(cfg *Config) error {
	for i := range cfg.Catalog {
		f := &cfg.Catalog[i]
		f.Key = strings.TrimSpace(f.Key)
		if f.Key == "" {
			return fmt.Errorf("catalog[%d]: key is required", i)
		}
		if len(f.Key) > maxCatalogKeyBytes {
			return fmt.Errorf("catalog[%d]: key %q exceeds %d bytes", i, f.Key, maxCatalogKeyBytes)
		}
		if strings.TrimSpace(f.Label) == "" {
			f.Label = f.Key
		}
	}
	return nil
}
