package dedup

import (
	"context"
	"time"

	"hookrelay/internal/config"
	"hookrelay/internal/constants"
	"hookrelay/internal/logger"
	"hookrelay/pkg/metrics"
)

// Service answers "have we seen this webhook delivery before". The hosting
// provider retries deliveries with the same delivery GUID; a duplicate is
// acknowledged without reprocessing.
type Service struct {
	repo   Repository
	ttl    time.Duration
	logger logger.Logger
}

func NewService(repo Repository, cfg config.DedupConfig, log logger.Logger) *Service {
	ttlSeconds := cfg.TTLSeconds
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return &Service{
		repo:   repo,
		ttl:    time.Duration(ttlSeconds) * time.Second,
		logger: log,
	}
}

// IsNew records the delivery id and reports whether it was unseen. An empty
// id and any repository error are treated as new: dedup fails open so a
// redis outage never drops webhooks.
func (s *Service) IsNew(ctx context.Context, deliveryID string) bool {
	if deliveryID == "" {
		return true
	}

	isNew, err := s.repo.SetNX(ctx, constants.DedupKeyPrefix+deliveryID, 1, s.ttl)
	if err != nil {
		metrics.FallbackUsageTotal.WithLabelValues("dedup", "allow_on_error", "repository_error").Inc()
		s.logger.WarnwCtx(ctx, "Dedup check failed, allowing delivery",
			"delivery_id", deliveryID,
			"error", err,
		)
		return true
	}

	if isNew {
		metrics.DedupChecksTotal.WithLabelValues("new").Inc()
	} else {
		metrics.DedupChecksTotal.WithLabelValues("duplicate").Inc()
	}
	return isNew
}
