package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"hookrelay/internal/config"
	"hookrelay/internal/constants"
	"hookrelay/internal/logger"
)

// ErrNotRunning is returned by Stop when the listener is already stopped.
var ErrNotRunning = errors.New("listener is not running")

// Listener owns the HTTP binding. Start and Stop are idempotent; the state
// transition and the bind/unbind happen under one mutex so a racing
// Start/Stop pair cannot leave the port bound with running=false or the
// reverse.
type Listener struct {
	mu      sync.Mutex
	host    string
	port    int
	handler http.Handler
	server  *http.Server
	running bool

	readTimeout  time.Duration
	writeTimeout time.Duration

	logger logger.Logger
}

func NewListener(cfg config.ServerConfig, handler http.Handler, log logger.Logger) *Listener {
	return &Listener{
		host:         cfg.Host,
		port:         cfg.Port,
		handler:      handler,
		readTimeout:  cfg.ReadTimeoutSeconds * time.Second,
		writeTimeout: cfg.WriteTimeoutSeconds * time.Second,
		logger:       log,
	}
}

// Start binds the configured address and begins serving. An already-running
// listener returns success without rebinding. A bind refused with "address
// in use" is treated as an already-running condition: a prior instance in
// this process, or a crash-restart, may own the port. That leniency can mask
// a genuine conflict with an unrelated process; callers accept the risk.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		l.logger.InfowCtx(ctx, "Webhook listener is already running")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", l.host, l.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			l.logger.WarnwCtx(ctx, "Port is already in use, assuming listener is running",
				"addr", addr,
			)
			l.running = true
			return nil
		}
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	l.server = &http.Server{
		Handler:      l.handler,
		ReadTimeout:  l.readTimeout,
		WriteTimeout: l.writeTimeout,
	}

	go func(server *http.Server) {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			l.logger.Errorw("Webhook listener serve error", "error", err)
		}
	}(l.server)

	l.running = true
	l.logger.InfowCtx(ctx, "Webhook listener started", "addr", addr)
	return nil
}

// Stop releases the port. Stopping an already-stopped listener returns
// ErrNotRunning with no side effects; a cleanup error is logged but the
// listener still transitions to stopped.
func (l *Listener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return ErrNotRunning
	}

	if l.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := l.server.Shutdown(shutdownCtx); err != nil {
			l.logger.Errorw("Error stopping webhook listener", "error", err)
		}
		l.server = nil
	}

	l.running = false
	l.logger.Infow("Webhook listener stopped")
	return nil
}

func (l *Listener) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Listener) Addr() string {
	return fmt.Sprintf("%s:%d", l.host, l.port)
}
