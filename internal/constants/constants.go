package constants

import "time"

const (
	EventTypeHeader  = "X-GitHub-Event"
	DeliveryIDHeader = "X-GitHub-Delivery"
)

const (
	SinkTypeHTTP  = "http"
	SinkTypeKafka = "kafka"
)

const (
	FallbackAllow = "allow"
	FallbackDeny  = "deny"
)

const (
	DedupKeyPrefix = "hookdelivery:"
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultMaxCommitDisplay = 5
	DefaultTruncateComment  = 100
)
