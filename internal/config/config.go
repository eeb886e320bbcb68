package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	MySQL      DatabaseConfig   `mapstructure:"mysql"`
	ClickHouse DatabaseConfig   `mapstructure:"clickhouse"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Fleet      FleetConfig      `mapstructure:"fleet"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Providers  []ProviderConfig `mapstructure:"providers"`
	Pinpoint   PinpointConfig   `mapstructure:"pinpoint"`
	Twilio     TwilioConfig     `mapstructure:"twilio"`
	Quota      QuotaConfig      `mapstructure:"quota"`
	Recorder   RecorderConfig   `mapstructure:"recorder"`
}

// ---- Leaf structs ----

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	DeliveriesTopic string   `mapstructure:"deliveries_topic"`
	GroupID         string   `mapstructure:"group_id"`
	MinBytes        int      `mapstructure:"min_bytes"`
	MaxBytes        int      `mapstructure:"max_bytes"`
	CommitInterval  int      `mapstructure:"commit_interval_ms"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"` // default per-client limit when api_clients.rate_limit_rps is NULL
}

type FleetConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Strict makes phone resolution fail when every source errors instead of
	// yielding an empty set.
	Strict bool `mapstructure:"strict"`
}

type CacheConfig struct {
	Backend  string        `mapstructure:"backend"` // redis|memory
	PhoneTTL time.Duration `mapstructure:"phone_ttl"`
}

type DispatcherConfig struct {
	MaxConcurrency   int           `mapstructure:"max_concurrency"`
	AttemptTimeout   time.Duration `mapstructure:"attempt_timeout"`
	MaxRetryAttempts int           `mapstructure:"max_retry_attempts"`
	VoiceID          string        `mapstructure:"voice_id"`
	VoiceTextType    string        `mapstructure:"voice_text_type"`
}

type BreakerConfig struct {
	FailThreshold int `mapstructure:"fail_threshold" yaml:"fail_threshold"`
	OpenForMs     int `mapstructure:"open_for_ms"    yaml:"open_for_ms"`
}

// ProviderConfig enables one transport. Kind is pinpoint|twilio|http.
type ProviderConfig struct {
	Name      string        `mapstructure:"name"`
	Kind      string        `mapstructure:"kind"`
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	SMSPath   string        `mapstructure:"sms_path"`
	VoicePath string        `mapstructure:"voice_path"`
	TimeoutMs int           `mapstructure:"timeout_ms"`
	Breaker   BreakerConfig `mapstructure:"breaker"`
}

type PinpointConfig struct {
	Region                 string `mapstructure:"region"`
	PoolARN                string `mapstructure:"pool_arn"`
	ConfigurationSetARN    string `mapstructure:"configuration_set_arn"`
	MaxPriceSMS            string `mapstructure:"max_price_sms"`
	MaxPriceVoicePerMinute string `mapstructure:"max_price_voice"`
	TTLSeconds             int64  `mapstructure:"ttl_seconds"`
	MessageType            string `mapstructure:"message_type"`
	ProtectConfigurationID string `mapstructure:"protect_configuration_id"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
}

type QuotaConfig struct {
	Precedence string `mapstructure:"precedence"` // customer_first|package_first
}

type RecorderConfig struct {
	BatchSize int           `mapstructure:"batch_size"`
	BatchWait time.Duration `mapstructure:"batch_wait"`
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	switch c.Quota.Precedence {
	case "customer_first", "package_first":
	default:
		return fmt.Errorf("invalid quota.precedence %q", c.Quota.Precedence)
	}
	switch c.Cache.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("invalid cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.PhoneTTL <= 0 {
		return fmt.Errorf("cache.phone_ttl must be positive")
	}
	return nil
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (NOTIFIER_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("merge %s: %w", path, err)
		}
	}

	// env override (NOTIFIER_MYSQL_DSN, NOTIFIER_QUOTA_PRECEDENCE, ...)
	v.SetEnvPrefix("NOTIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
