package config

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// LegacyToken keeps the variable name used by earlier deployments.
	LegacyToken string `yaml:"-" envconfig:"TG_API_KEY"`
	RunMode     string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
	// AlertChatID receives ERROR records through the bot when non-zero.
	AlertChatID int64 `yaml:"alert_chat_id" envconfig:"TG_LOG_CHAT_ID"`
}

// PostgresConfig holds connection settings for the Postgres session backend.
type PostgresConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// SessionConfig selects and configures the conversation state store.
type SessionConfig struct {
	Backend   string `yaml:"backend" envconfig:"SESSION_BACKEND"`
	RedisURL  string `yaml:"redis_url" envconfig:"REDIS_DB_URL"`
	KeyPrefix string `yaml:"key_prefix" envconfig:"SESSION_KEY_PREFIX"`
	// OpTimeoutMS bounds every single store read or write.
	OpTimeoutMS int            `yaml:"op_timeout_ms" envconfig:"SESSION_OP_TIMEOUT_MS"`
	Postgres    PostgresConfig `yaml:"postgres"`
}

// CommerceConfig points at the Elastic Path (Moltin) store API.
type CommerceConfig struct {
	APIURL         string `yaml:"api_url" envconfig:"EP_API_URL"`
	ClientID       string `yaml:"client_id" envconfig:"EP_CLIENT_ID"`
	ClientSecret   string `yaml:"client_secret" envconfig:"EP_CLIENT_SECRET"`
	PriceBookID    string `yaml:"price_book_id" envconfig:"MOLTIN_PRICE_BOOK_ID"`
	Currency       string `yaml:"currency" envconfig:"EP_CURRENCY"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"EP_TIMEOUT_SECONDS"`
}

// ConversationConfig tunes the conversation engine.
type ConversationConfig struct {
	// NotifyFailures sends a generic notice when a turn fails.
	NotifyFailures *bool `yaml:"notify_failures" envconfig:"CONVERSATION_NOTIFY_FAILURES"`
	// SerializeUsers holds a per-user lock across the read-handle-write window.
	SerializeUsers bool `yaml:"serialize_users" envconfig:"CONVERSATION_SERIALIZE_USERS"`
}

// MetricsConfig enables the Prometheus listener when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// BackendRedis stores sessions in Redis, one string key per chat.
	BackendRedis = "redis"
	// BackendPostgres stores sessions in the bot_sessions table.
	BackendPostgres = "postgres"
	// BackendMemory keeps sessions in process memory (development only).
	BackendMemory = "memory"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

const (
	defaultOpTimeoutMS     = 3000
	defaultCommerceTimeout = 10
	defaultCurrency        = "USD"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram     TelegramConfig     `yaml:"telegram"`
	Webhook      WebhookConfig      `yaml:"webhook"`
	Logging      LoggingConfig      `yaml:"logging"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Session      SessionConfig      `yaml:"session"`
	Commerce     CommerceConfig     `yaml:"commerce"`
	Conversation ConversationConfig `yaml:"conversation"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// Load reads the optional YAML file at path, then overlays environment
// variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path = strings.TrimSpace(path); path != "" {
		if err := readYAML(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// Normalize fills defaults and validates cfg. Every problem found is
// reported in one multierror.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	var problems *multierror.Error
	add := func(err error) { problems = multierror.Append(problems, err) }

	if cfg.Telegram.Token == "" {
		cfg.Telegram.Token = cfg.Telegram.LegacyToken
	}
	if cfg.Telegram.Token == "" {
		add(errors.New("telegram token is required"))
	}
	for _, check := range []func(*Config) error{normalizeRunMode, normalizeRateLimit} {
		if err := check(cfg); err != nil {
			add(err)
		}
	}
	if err := normalizeSession(&cfg.Session); err != nil {
		add(err)
	}
	if err := normalizeCommerce(&cfg.Commerce); err != nil {
		add(err)
	}
	if cfg.Conversation.NotifyFailures == nil {
		notify := true
		cfg.Conversation.NotifyFailures = &notify
	}
	return problems.ErrorOrNil()
}

func normalizeRateLimit(cfg *Config) error {
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		switch kind := strings.ToLower(strings.TrimSpace(v)); kind {
		case "":
		case UpdateCallback, UpdateMessage:
			cfg.RateLimit.ExcludeUpdates[i] = kind
		default:
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
	}
	return nil
}

func normalizeRunMode(cfg *Config) error {
	mode := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	switch mode {
	case "", "polling", RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
		}
		mode = RunModeLongpoll
	case RunModeWebhook:
		const when = "when telegram.run_mode is 'webhook'"
		switch {
		case strings.TrimSpace(cfg.Webhook.URL) == "":
			return errors.New("webhook.url is required " + when)
		case strings.TrimSpace(cfg.Webhook.Listen) == "":
			return errors.New("webhook.listen is required " + when)
		case cfg.Webhook.Port <= 0:
			return errors.New("webhook.port must be > 0 " + when)
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = mode
	return nil
}

func normalizeSession(s *SessionConfig) error {
	backend := strings.ToLower(strings.TrimSpace(s.Backend))
	if backend == "" {
		backend = BackendRedis
	}
	if s.OpTimeoutMS <= 0 {
		s.OpTimeoutMS = defaultOpTimeoutMS
	}
	switch backend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(s.RedisURL) == "" {
			return errors.New("session.redis_url is required when session.backend is 'redis'")
		}
	case BackendPostgres:
		pg := &s.Postgres
		if pg.Host == "" || pg.Name == "" {
			return errors.New("session.postgres.host and session.postgres.name are required when session.backend is 'postgres'")
		}
		pg.Port = cmp.Or(pg.Port, "5432")
		pg.SSLMode = cmp.Or(pg.SSLMode, "disable")
		if pg.MaxConnections <= 0 {
			pg.MaxConnections = 5
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: redis, postgres, memory", s.Backend)
	}
	s.Backend = backend
	return nil
}

func normalizeCommerce(c *CommerceConfig) error {
	switch {
	case strings.TrimSpace(c.APIURL) == "":
		return errors.New("commerce.api_url is required")
	case c.ClientID == "" || c.ClientSecret == "":
		return errors.New("commerce.client_id and commerce.client_secret are required")
	case c.PriceBookID == "":
		return errors.New("commerce.price_book_id is required")
	}
	if !strings.HasSuffix(c.APIURL, "/") {
		c.APIURL += "/"
	}
	c.Currency = cmp.Or(strings.ToUpper(strings.TrimSpace(c.Currency)), defaultCurrency)
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultCommerceTimeout
	}
	return nil
}

// NotifyFailures reports whether failed turns should produce a user notice.
func (c *Config) NotifyFailures() bool {
	return c.Conversation.NotifyFailures == nil || *c.Conversation.NotifyFailures
}
