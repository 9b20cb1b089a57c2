package relay

import (
	"sync"
	"sync/atomic"
)

// Stats tracks per-process request counters. Everything resets on restart;
// counters other than the subscriber gauge only grow.
type Stats struct {
	totalRequests      atomic.Int64
	successfulRequests atomic.Int64
	failedRequests     atomic.Int64
	subscribers        atomic.Int64

	mu           sync.Mutex
	eventsByType map[string]int64
}

// Snapshot is the JSON form served on the health and stats endpoints.
type Snapshot struct {
	TotalRequests         int64            `json:"total_requests"`
	SuccessfulRequests    int64            `json:"successful_requests"`
	FailedRequests        int64            `json:"failed_requests"`
	EventsByType          map[string]int64 `json:"events_by_type"`
	RegisteredSubscribers int64            `json:"registered_subscribers"`
}

func NewStats() *Stats {
	return &Stats{
		eventsByType: make(map[string]int64),
	}
}

func (s *Stats) IncTotal() {
	s.totalRequests.Add(1)
}

func (s *Stats) IncSuccessful() {
	s.successfulRequests.Add(1)
}

func (s *Stats) IncFailed() {
	s.failedRequests.Add(1)
}

func (s *Stats) IncEvent(eventType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventsByType[eventType]++
}

func (s *Stats) SetSubscribers(count int) {
	s.subscribers.Store(int64(count))
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	events := make(map[string]int64, len(s.eventsByType))
	for eventType, count := range s.eventsByType {
		events[eventType] = count
	}
	s.mu.Unlock()

	return Snapshot{
		TotalRequests:         s.totalRequests.Load(),
		SuccessfulRequests:    s.successfulRequests.Load(),
		FailedRequests:        s.failedRequests.Load(),
		EventsByType:          events,
		RegisteredSubscribers: s.subscribers.Load(),
	}
}
