package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"hookrelay/internal/config"
	"hookrelay/internal/constants"
	"hookrelay/internal/logger"
	"hookrelay/pkg/metrics"
)

// KafkaSink publishes delivery records to a topic for a downstream chat
// bridge to consume.
type KafkaSink struct {
	writer *kafka.Writer
	topic  string
	logger logger.Logger
}

func NewKafkaSink(cfg config.KafkaSinkConfig, log logger.Logger) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: constants.KafkaBatchTimeout,
		WriteTimeout: constants.KafkaWriteTimeout,
		Async:        false,
	}
	return &KafkaSink{writer: w, topic: cfg.Topic, logger: log}
}

func (s *KafkaSink) Send(ctx context.Context, destination int64, text string) error {
	delivery := Delivery{
		ID:          uuid.New().String(),
		Destination: destination,
		Message:     text,
		Timestamp:   time.Now(),
	}

	body, err := json.Marshal(delivery)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery: %w", err)
	}

	err = s.writer.WriteMessages(ctx,
		kafka.Message{
			Topic: s.topic,
			Key:   []byte(delivery.ID),
			Value: body,
			Time:  time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	metrics.KafkaMessagesWrittenTotal.WithLabelValues("relay-service", s.topic).Inc()
	return nil
}

func (s *KafkaSink) Ready() bool {
	return s.writer != nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
