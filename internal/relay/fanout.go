package relay

import (
	"context"

	"hookrelay/pkg/metrics"
)

// deliver fans one rendered message out to every configured destination
// through the first subscriber with a ready sink. Best-effort: a failed
// destination is logged and skipped, it never aborts the remaining ones and
// never surfaces to the ingress handler.
func (s *Server) deliver(ctx context.Context, message string) {
	destinations := s.store.Destinations()
	if len(destinations) == 0 {
		s.logger.WarnwCtx(ctx, "No destinations configured, dropping message")
		return
	}

	target := s.firstReadySink()
	if target == nil {
		s.logger.ErrorwCtx(ctx, "No subscriber with a ready sink available")
		return
	}

	for _, destination := range destinations {
		if err := target.Send(ctx, destination, message); err != nil {
			metrics.RelayDeliveriesTotal.WithLabelValues("error").Inc()
			s.logger.ErrorwCtx(ctx, "Failed to deliver message",
				"destination", destination,
				"error", err,
			)
			continue
		}
		metrics.RelayDeliveriesTotal.WithLabelValues("ok").Inc()
		s.logger.DebugwCtx(ctx, "Message delivered", "destination", destination)
	}
}
