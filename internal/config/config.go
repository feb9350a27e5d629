package config

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	GRPC       GRPCConfig       `yaml:"grpc"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	NATS       NATSConfig       `yaml:"nats"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Moderation ModerationConfig `yaml:"moderation"`
	Policy     PolicyConfig     `yaml:"policy"`
	Assistant  AssistantConfig  `yaml:"assistant"`
	Context    ContextConfig    `yaml:"context"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes"`
}

type GRPCConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
}

type NATSConfig struct {
	URL           string        `yaml:"url"`
	Name          string        `yaml:"name"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	MaxReconnects int           `yaml:"max_reconnects"`
}

type TelemetryConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type ModerationConfig struct {
	Enabled   bool            `yaml:"enabled"`
	RulesFile string          `yaml:"rules_file"`
	TermStore TermStoreConfig `yaml:"term_store"`
}

type TermStoreConfig struct {
	Enabled         bool          `yaml:"enabled"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type PolicyConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BundlePath        string        `yaml:"bundle_path"`
	EvaluationTimeout time.Duration `yaml:"evaluation_timeout"`
}

type AssistantConfig struct {
	BaseURL        string               `yaml:"base_url"`
	APIKey         string               `yaml:"api_key"`
	Model          string               `yaml:"model"`
	Temperature    float64              `yaml:"temperature"`
	MaxTokens      int                  `yaml:"max_tokens"`
	Timeout        time.Duration        `yaml:"timeout"`
	MaxRetries     int                  `yaml:"max_retries"`
	RetryBase      time.Duration        `yaml:"retry_base"`
	SystemPrompt   string               `yaml:"system_prompt"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	FailureThreshold      int           `yaml:"failure_threshold"`
	RecoveryProbeInterval time.Duration `yaml:"recovery_probe_interval"`
}

type ContextConfig struct {
	MaxMessages int           `yaml:"max_messages"`
	HistorySize int           `yaml:"history_size"`
	TTL         time.Duration `yaml:"ttl"`
}

type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Messages int64         `yaml:"messages"`
	Window   time.Duration `yaml:"window"`
}

const defaultSystemPrompt = `Ты полезный AI-ассистент. Отвечай дружелюбно и информативно.
Если вопрос непонятен, вежливо попроси уточнить.
Будь краток, но содержателен.`

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     120 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
			MaxBodyBytes:     64 << 10,
		},
		GRPC: GRPCConfig{
			Enabled: true,
			Port:    9091,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "textguard",
			User:            "textguard",
			MaxOpenConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addresses: []string{"localhost:6379"},
			PoolSize:  50,
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			Name:          "textguard",
			ReconnectWait: 2 * time.Second,
			MaxReconnects: -1,
		},
		Telemetry: TelemetryConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
		Moderation: ModerationConfig{
			Enabled:   true,
			RulesFile: "rules.yaml",
			TermStore: TermStoreConfig{
				RefreshInterval: 5 * time.Minute,
			},
		},
		Policy: PolicyConfig{
			Enabled:           false,
			BundlePath:        "/etc/textguard/policies",
			EvaluationTimeout: 100 * time.Millisecond,
		},
		Assistant: AssistantConfig{
			BaseURL:      "https://api.deepseek.com/v1",
			Model:        "deepseek-chat",
			Temperature:  0.7,
			MaxTokens:    2000,
			Timeout:      30 * time.Second,
			MaxRetries:   3,
			RetryBase:    time.Second,
			SystemPrompt: defaultSystemPrompt,
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold:      5,
				RecoveryProbeInterval: 15 * time.Second,
			},
		},
		Context: ContextConfig{
			MaxMessages: 20,
			HistorySize: 10,
			TTL:         15 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Messages: 20,
			Window:   time.Minute,
		},
	}
}
