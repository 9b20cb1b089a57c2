package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hookrelay/internal/config"
	"hookrelay/internal/constants"
	"hookrelay/internal/dedup"
	"hookrelay/internal/filter"
	"hookrelay/internal/logger"
	"hookrelay/internal/registry"
	"hookrelay/internal/sink"
	"hookrelay/pkg/errors"
	"hookrelay/pkg/health"
	"hookrelay/pkg/logging"
	"hookrelay/pkg/metrics"
	"hookrelay/pkg/middleware"
)

var errMissingEventHeader = errors.NewError("VALIDATION_ERROR",
	"Missing "+constants.EventTypeHeader+" header", http.StatusBadRequest)

// Server composes the webhook listener, the registration store, the
// delivery fan-out and the stats block. It is constructed once by the
// composition root and handed to every component that needs it; subscriber
// handles register against it explicitly.
type Server struct {
	cfg    *config.Config
	store  *registry.Store
	stats  *Stats
	filter *filter.Engine
	dedup  *dedup.Service
	checks *health.CheckerRegistry

	subMu       sync.Mutex
	subscribers []Subscriber

	listener *Listener
	logger   logger.Logger
}

func NewServer(cfg *config.Config, store *registry.Store, filterEngine *filter.Engine, dedupService *dedup.Service, checks *health.CheckerRegistry, log logger.Logger) *Server {
	if checks == nil {
		checks = health.NewCheckerRegistry()
	}
	s := &Server{
		cfg:    cfg,
		store:  store,
		stats:  NewStats(),
		filter: filterEngine,
		dedup:  dedupService,
		checks: checks,
		logger: log,
	}
	s.listener = NewListener(cfg.Server, s.router(), log)
	return s
}

// Initialize is the explicit post-construction step: it loads the
// registration store and, when auto-start is configured and the store says
// enabled, starts the listener. Callers must not route commands to the
// server before Initialize returns.
func (s *Server) Initialize(ctx context.Context) error {
	if err := s.store.Load(); err != nil {
		return err
	}

	if s.cfg.Relay.AutoStart && s.store.IsEnabled() {
		if err := s.listener.Start(ctx); err != nil {
			s.logger.ErrorwCtx(ctx, "Failed to auto-start webhook listener", "error", err)
			return err
		}
		s.logger.InfowCtx(ctx, "Webhook listener auto-started",
			"addr", s.listener.Addr(),
			"destinations", s.store.Destinations(),
		)
	}

	return nil
}

// Register adds a subscriber handle. Registering the same handle twice is a
// no-op.
func (s *Server) Register(sub Subscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, existing := range s.subscribers {
		if existing == sub {
			return
		}
	}
	s.subscribers = append(s.subscribers, sub)
	s.stats.SetSubscribers(len(s.subscribers))
	s.logger.Infow("Registered subscriber", "total", len(s.subscribers))
}

func (s *Server) Unregister(sub Subscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, existing := range s.subscribers {
		if existing == sub {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			s.stats.SetSubscribers(len(s.subscribers))
			s.logger.Infow("Unregistered subscriber", "remaining", len(s.subscribers))
			return
		}
	}
}

// Start and Stop drive the listener only; persisting the enabled flag is
// the administrative layer's call, so a process shutdown never rewrites the
// stored registration intent.
func (s *Server) Start(ctx context.Context) error {
	return s.listener.Start(ctx)
}

func (s *Server) Stop() error {
	return s.listener.Stop()
}

func (s *Server) IsRunning() bool {
	return s.listener.IsRunning()
}

func (s *Server) Addr() string {
	return s.listener.Addr()
}

// Handler exposes the HTTP surface without requiring a bound listener.
func (s *Server) Handler() http.Handler {
	return s.listener.handler
}

func (s *Server) Store() *registry.Store {
	return s.store
}

func (s *Server) Stats() Snapshot {
	return s.stats.Snapshot()
}

func (s *Server) Close() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, sub := range s.subscribers {
		if target := sub.Sink(); target != nil {
			if err := target.Close(); err != nil {
				s.logger.Errorw("Failed to close sink", "error", err)
			}
		}
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(s.logger))
	router.Use(middleware.RecoveryMiddleware(s.logger))

	router.POST("/", s.HandleIngress)
	router.GET("/", s.HandleHealth)
	router.GET("/stats", s.HandleStats)
	router.GET("/health", s.HandleDependencyHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// HandleIngress runs the full pipeline for one webhook request: counters,
// header validation, dedup, enablement and filter checks, rendering, and
// fan-out. Nothing in here may take the process down; a panic resolves to a
// 500 response and a bumped failure counter.
func (s *Server) HandleIngress(c *gin.Context) {
	s.stats.IncTotal()

	ctx := c.Request.Context()

	defer func() {
		if r := recover(); r != nil {
			err := errors.RecoverPanic(r)
			s.stats.IncFailed()
			metrics.RelayRequestsTotal.WithLabelValues("error").Inc()
			s.logger.ErrorwCtx(ctx, "Panic while handling webhook", "error", err)
			// The recovered error's details carry the stack trace; respond
			// with the bare sentinel so it stays out of the body.
			c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(errors.ErrInternal))
		}
	}()

	eventType := c.GetHeader(constants.EventTypeHeader)
	if eventType == "" {
		s.logger.WarnwCtx(ctx, "Missing event type header")
		s.stats.IncFailed()
		metrics.RelayRequestsTotal.WithLabelValues("error").Inc()
		c.JSON(errors.ToHTTPStatus(errMissingEventHeader), errors.ToErrorResponse(errMissingEventHeader))
		return
	}

	// Received volume, not delivered: counted before any filtering.
	s.stats.IncEvent(eventType)
	metrics.RelayEventsTotal.WithLabelValues(eventType).Inc()

	if deliveryID := c.GetHeader(constants.DeliveryIDHeader); deliveryID != "" {
		ctx = logging.WithDeliveryID(ctx, deliveryID)
		if s.dedup != nil && !s.dedup.IsNew(ctx, deliveryID) {
			s.logger.InfowCtx(ctx, "Duplicate delivery ignored", "event_type", eventType)
			c.JSON(http.StatusOK, gin.H{"message": "Duplicate delivery"})
			return
		}
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.failIngress(c, ctx, "Failed to read request body", err)
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		s.failIngress(c, ctx, "Failed to parse request body", err)
		return
	}

	s.logger.DebugwCtx(ctx, "Received webhook", "event_type", eventType)

	if !s.store.IsEventEnabled(eventType) {
		s.logger.DebugwCtx(ctx, "Event type disabled", "event_type", eventType)
		metrics.RelayFilteredEventsTotal.WithLabelValues("disabled").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "Event type disabled"})
		return
	}

	if s.cfg.Relay.FilterBots && isBotSender(payload) {
		s.logger.DebugwCtx(ctx, "Filtered bot event", "event_type", eventType)
		metrics.RelayFilteredEventsTotal.WithLabelValues("bot").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "Bot event filtered"})
		return
	}

	if s.filter != nil {
		action, _ := payload["action"].(string)
		if s.filter.Matches(ctx, eventType, action, payload) {
			s.logger.DebugwCtx(ctx, "Event dropped by filter rule", "event_type", eventType)
			metrics.RelayFilteredEventsTotal.WithLabelValues("rule").Inc()
			c.JSON(http.StatusOK, gin.H{"message": "Event filtered"})
			return
		}
	}

	start := time.Now()
	message, rendered := s.renderFirst(eventType, payload)
	metrics.ObserveRenderDuration(time.Since(start), eventType)

	if rendered {
		s.deliver(ctx, message)
		s.stats.IncSuccessful()
		metrics.RelayRequestsTotal.WithLabelValues("ok").Inc()
		s.logger.InfowCtx(ctx, "Processed webhook event", "event_type", eventType)
	} else {
		s.logger.WarnwCtx(ctx, "No renderable message for event", "event_type", eventType)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Received"})
}

func (s *Server) failIngress(c *gin.Context, ctx context.Context, msg string, err error) {
	appErr := errors.Wrap(err, errors.ErrInternal)
	s.stats.IncFailed()
	metrics.RelayRequestsTotal.WithLabelValues("error").Inc()
	s.logger.ErrorwCtx(ctx, msg, "error", appErr)
	c.JSON(errors.ToHTTPStatus(appErr), errors.ToErrorResponse(appErr))
}

func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"running": s.listener.IsRunning(),
		"stats":   s.stats.Snapshot(),
	})
}

func (s *Server) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.stats.Snapshot())
}

// HandleDependencyHealth reports per-dependency checks (redis when dedup is
// enabled). Distinct from the root health endpoint, whose body is part of
// the relay's stable surface.
func (s *Server) HandleDependencyHealth(c *gin.Context) {
	h := s.checks.Check(c.Request.Context())
	statusCode := http.StatusOK
	if h.Status == health.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, h)
}

// renderFirst returns the first subscriber's successful render.
func (s *Server) renderFirst(eventType string, payload map[string]interface{}) (string, bool) {
	s.subMu.Lock()
	subscribers := make([]Subscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.subMu.Unlock()

	for _, sub := range subscribers {
		if message, ok := sub.Render(eventType, payload); ok && message != "" {
			return message, true
		}
	}
	return "", false
}

func (s *Server) firstReadySink() sink.Sink {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, sub := range s.subscribers {
		if target := sub.Sink(); target != nil && target.Ready() {
			return target
		}
	}
	return nil
}

func isBotSender(payload map[string]interface{}) bool {
	sender, ok := payload["sender"].(map[string]interface{})
	if !ok {
		return false
	}
	senderType, _ := sender["type"].(string)
	return senderType == "Bot"
}
