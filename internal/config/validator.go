package config

import (
	"fmt"

	"hookrelay/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateRelay(cfg.Relay); err != nil {
		errors = append(errors, err)
	}

	if err := validateSink(cfg.Sink); err != nil {
		errors = append(errors, err)
	}

	if err := validateFilter(cfg.Filter); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateRelay(cfg RelayConfig) error {
	if cfg.MaxCommitDisplay < 1 {
		return &ValidationError{
			Field:   "relay.max_commit_display",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.MaxCommitDisplay),
		}
	}

	if cfg.TruncateComment < 1 {
		return &ValidationError{
			Field:   "relay.truncate_comment",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.TruncateComment),
		}
	}

	return nil
}

func validateSink(cfg SinkConfig) error {
	switch cfg.Type {
	case constants.SinkTypeHTTP:
		if cfg.HTTP.Endpoint == "" {
			return &ValidationError{
				Field:   "sink.http.endpoint",
				Message: "endpoint is required for the http sink",
			}
		}
	case constants.SinkTypeKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return &ValidationError{
				Field:   "sink.kafka.brokers",
				Message: "at least one broker is required for the kafka sink",
			}
		}
		if cfg.Kafka.Topic == "" {
			return &ValidationError{
				Field:   "sink.kafka.topic",
				Message: "topic is required for the kafka sink",
			}
		}
	default:
		return &ValidationError{
			Field:   "sink.type",
			Message: fmt.Sprintf("unknown sink type %q", cfg.Type),
		}
	}

	return nil
}

func validateFilter(cfg FilterConfig) error {
	switch cfg.OnError {
	case constants.FallbackAllow, constants.FallbackDeny:
		return nil
	default:
		return &ValidationError{
			Field:   "filter.on_error",
			Message: fmt.Sprintf("must be %q or %q, got %q", constants.FallbackAllow, constants.FallbackDeny, cfg.OnError),
		}
	}
}
