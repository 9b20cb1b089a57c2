package relay

import (
	"hookrelay/internal/render"
	"hookrelay/internal/sink"
)

// Subscriber is one logical registrant of the shared relay server. It
// provides a rendering capability and a chat-sink capability; the ingress
// path uses the first subscriber that renders an event, and the first with a
// ready sink for delivery. Subscribers are interchangeable, not prioritized.
type Subscriber interface {
	Render(eventType string, payload map[string]interface{}) (string, bool)
	Sink() sink.Sink
}

// RelaySubscriber is the default subscriber: a template renderer paired with
// a message sink.
type RelaySubscriber struct {
	renderer *render.Renderer
	sink     sink.Sink
}

func NewSubscriber(renderer *render.Renderer, s sink.Sink) *RelaySubscriber {
	return &RelaySubscriber{
		renderer: renderer,
		sink:     s,
	}
}

func (s *RelaySubscriber) Render(eventType string, payload map[string]interface{}) (string, bool) {
	return s.renderer.Render(eventType, payload)
}

func (s *RelaySubscriber) Sink() sink.Sink {
	return s.sink
}
