package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"hookrelay/internal/config"
	"hookrelay/internal/dedup"
	"hookrelay/internal/filter"
	"hookrelay/internal/logger"
	"hookrelay/internal/registry"
	"hookrelay/internal/relay"
	"hookrelay/internal/render"
	"hookrelay/internal/sink"
	"hookrelay/pkg/health"
	"hookrelay/pkg/metrics"
)

type App struct {
	cfg    *config.Config
	logger logger.Logger

	redisClient *redis.Client
	messageSink sink.Sink
	server      *relay.Server
	health      *health.CheckerRegistry
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("relay-service")
	}
	return &App{
		cfg:    cfg,
		logger: log,
		health: health.NewCheckerRegistry(),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	metrics.RegisterRelayMetrics()
	metrics.RegisterSinkMetrics()
	if a.cfg.Dedup.Enabled {
		metrics.RegisterDedupMetrics()
	}
	if a.cfg.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	dedupService, err := a.initDedup(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize deduplication: %w", err)
	}

	filterEngine, err := filter.NewEngine(a.cfg.Filter, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize filter engine: %w", err)
	}

	store := registry.NewStore(a.cfg.Registry.Path, a.logger)

	a.server = relay.NewServer(a.cfg, store, filterEngine, dedupService, a.health, a.logger)

	messageSink, err := sink.New(a.cfg.Sink, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize message sink: %w", err)
	}
	a.messageSink = messageSink

	renderer := render.New(render.Options{
		MaxCommitDisplay: a.cfg.Relay.MaxCommitDisplay,
		TruncateComment:  a.cfg.Relay.TruncateComment,
	}, a.logger)

	a.server.Register(relay.NewSubscriber(renderer, messageSink))

	if err := a.server.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize relay server: %w", err)
	}

	return nil
}

func (a *App) initDedup(ctx context.Context) (*dedup.Service, error) {
	if !a.cfg.Dedup.Enabled {
		return nil, nil
	}

	a.redisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", a.cfg.Dedup.Redis.Host, a.cfg.Dedup.Redis.Port),
		Password: a.cfg.Dedup.Redis.Password,
		DB:       a.cfg.Dedup.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.redisClient.Ping(pingCtx).Err(); err != nil {
		// Dedup fails open; a cold redis only costs duplicate suppression.
		a.logger.WarnwCtx(ctx, "Redis unreachable at startup, dedup will fail open", "error", err)
	}

	a.health.Register(health.NewRedisChecker(a.redisClient))

	repo := dedup.NewCircuitBreakerRepository(dedup.NewRepository(a.redisClient), a.cfg.CircuitBreaker)
	return dedup.NewService(repo, a.cfg.Dedup, a.logger), nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gCtx.Done()
		return gCtx.Err()
	})

	// Periodic stats heartbeat so operators see relay volume in the logs
	// without scraping /metrics.
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				snapshot := a.server.Stats()
				a.logger.InfowCtx(gCtx, "Relay stats",
					"total_requests", snapshot.TotalRequests,
					"successful_requests", snapshot.SuccessfulRequests,
					"failed_requests", snapshot.FailedRequests,
				)
			}
		}
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Infow("Shutting down relay service")

	var errs []error

	if a.server != nil && a.server.IsRunning() {
		if err := a.server.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("listener stop error: %w", err))
		}
	}

	if a.messageSink != nil {
		if err := a.messageSink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sink close error: %w", err))
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close error: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.Infow("Relay service exited")
	return nil
}
