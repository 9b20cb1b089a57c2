package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RelayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_requests_total",
			Help: "Total number of webhook requests received by the relay (count)",
		},
		[]string{"status"},
	)

	RelayEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Total number of webhook events received by event type (count)",
		},
		[]string{"event_type"},
	)

	RelayDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Total number of per-destination delivery attempts (count)",
		},
		[]string{"status"},
	)

	RelayRenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_render_duration_ms",
			Help:    "Duration of event rendering in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"event_type"},
	)

	RelayFilteredEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_filtered_events_total",
			Help: "Total number of events dropped before delivery (count)",
		},
		[]string{"reason"},
	)

	DedupChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_checks_total",
			Help: "Total number of delivery deduplication checks (count)",
		},
		[]string{"status"},
	)

	FallbackUsageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_usage_total",
			Help: "Total number of times fallback strategies were used (count)",
		},
		[]string{"component", "strategy", "reason"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)
)

func RegisterRelayMetrics() {
	prometheus.MustRegister(RelayRequestsTotal)
	prometheus.MustRegister(RelayEventsTotal)
	prometheus.MustRegister(RelayDeliveriesTotal)
	prometheus.MustRegister(RelayRenderDuration)
	prometheus.MustRegister(RelayFilteredEventsTotal)
	prometheus.MustRegister(FallbackUsageTotal)
}

func RegisterDedupMetrics() {
	prometheus.MustRegister(DedupChecksTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func RegisterSinkMetrics() {
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
}

func ObserveRenderDuration(duration time.Duration, eventType string) {
	RelayRenderDuration.WithLabelValues(eventType).Observe(float64(duration.Milliseconds()))
}
