package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	Relay          RelayConfig
	Registry       RegistryConfig
	Sink           SinkConfig
	Filter         FilterConfig
	Dedup          DedupConfig
	CircuitBreaker CircuitBreakerConfig
	Logging        LoggingConfig
}

type ServerConfig struct {
	Host                string        `mapstructure:"host"`
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

type RelayConfig struct {
	AutoStart        bool `mapstructure:"auto_start"`
	MaxCommitDisplay int  `mapstructure:"max_commit_display"`
	TruncateComment  int  `mapstructure:"truncate_comment"`
	FilterBots       bool `mapstructure:"filter_bots"`
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

type SinkConfig struct {
	Type  string          `mapstructure:"type"`
	HTTP  HTTPSinkConfig  `mapstructure:"http"`
	Kafka KafkaSinkConfig `mapstructure:"kafka"`
}

type HTTPSinkConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	TimeoutSeconds time.Duration `mapstructure:"timeout_seconds"`
}

type KafkaSinkConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type FilterConfig struct {
	Rules   []string `mapstructure:"rules"`
	OnError string   `mapstructure:"on_error"` // "allow" or "deny" (default: "allow")
}

type DedupConfig struct {
	Enabled    bool        `mapstructure:"enabled"`
	TTLSeconds int         `mapstructure:"ttl_seconds"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
