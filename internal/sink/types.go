package sink

import (
	"context"
	"fmt"
	"time"

	"hookrelay/internal/config"
	"hookrelay/internal/constants"
	"hookrelay/internal/logger"
)

// Sink is the chat transport the relay delivers through. Implementations
// accept a destination identifier and a text payload and may fail per call.
type Sink interface {
	Send(ctx context.Context, destination int64, text string) error
	Ready() bool
	Close() error
}

// Delivery is the wire record a broker-backed sink publishes for one
// destination.
type Delivery struct {
	ID          string    `json:"id"`
	Destination int64     `json:"destination"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

func New(cfg config.SinkConfig, log logger.Logger) (Sink, error) {
	switch cfg.Type {
	case constants.SinkTypeHTTP:
		return NewHTTPSink(cfg.HTTP, log), nil
	case constants.SinkTypeKafka:
		return NewKafkaSink(cfg.Kafka, log), nil
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}
}
