package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 997)
	viper.SetDefault("server.read_timeout_seconds", 10)
	viper.SetDefault("server.write_timeout_seconds", 10)

	viper.SetDefault("relay.auto_start", true)
	viper.SetDefault("relay.max_commit_display", 5)
	viper.SetDefault("relay.truncate_comment", 100)
	viper.SetDefault("relay.filter_bots", false)

	viper.SetDefault("registry.path", "registration.json")

	viper.SetDefault("sink.type", "http")
	viper.SetDefault("sink.http.timeout_seconds", 10)

	viper.SetDefault("filter.on_error", "allow")

	viper.SetDefault("dedup.enabled", false)
	viper.SetDefault("dedup.ttl_seconds", 3600)
	viper.SetDefault("dedup.redis.host", "localhost")
	viper.SetDefault("dedup.redis.port", 6379)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

func bindEnvVariables() {
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout_seconds", "SERVER_READ_TIMEOUT_SECONDS")
	viper.BindEnv("server.write_timeout_seconds", "SERVER_WRITE_TIMEOUT_SECONDS")

	viper.BindEnv("registry.path", "REGISTRY_PATH")

	viper.BindEnv("sink.type", "SINK_TYPE")
	viper.BindEnv("sink.http.endpoint", "SINK_HTTP_ENDPOINT")
	viper.BindEnv("sink.kafka.brokers", "SINK_KAFKA_BROKERS")
	viper.BindEnv("sink.kafka.topic", "SINK_KAFKA_TOPIC")

	viper.BindEnv("dedup.enabled", "DEDUP_ENABLED")
	viper.BindEnv("dedup.redis.host", "DEDUP_REDIS_HOST")
	viper.BindEnv("dedup.redis.port", "DEDUP_REDIS_PORT")
	viper.BindEnv("dedup.redis.password", "DEDUP_REDIS_PASSWORD")
	viper.BindEnv("dedup.redis.db", "DEDUP_REDIS_DB")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")
}

func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("SINK_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Sink.Kafka.Brokers = brokers
		}
	}

	return nil
}
