package relay

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookrelay/internal/config"
	"hookrelay/internal/logger"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func newTestListener(port int) *Listener {
	return NewListener(config.ServerConfig{
		Host:                "127.0.0.1",
		Port:                port,
		ReadTimeoutSeconds:  5,
		WriteTimeoutSeconds: 5,
	}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), logger.NopLogger())
}

func TestListenerStartStop(t *testing.T) {
	l := newTestListener(freePort(t))
	assert.False(t, l.IsRunning())

	require.NoError(t, l.Start(context.Background()))
	assert.True(t, l.IsRunning())

	// The bound port answers requests.
	resp, err := http.Get(fmt.Sprintf("http://%s/", l.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, l.Stop())
	assert.False(t, l.IsRunning())
}

func TestListenerStartIdempotent(t *testing.T) {
	l := newTestListener(freePort(t))

	require.NoError(t, l.Start(context.Background()))
	require.NoError(t, l.Start(context.Background()))
	assert.True(t, l.IsRunning())

	require.NoError(t, l.Stop())
}

func TestListenerStopWhenStopped(t *testing.T) {
	l := newTestListener(freePort(t))

	err := l.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.False(t, l.IsRunning())
}

func TestListenerStopIsFinal(t *testing.T) {
	l := newTestListener(freePort(t))

	require.NoError(t, l.Start(context.Background()))
	require.NoError(t, l.Stop())

	err := l.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestListenerTreatsBusyPortAsRunning(t *testing.T) {
	// Occupy a port with an unrelated listener, then start on top of it.
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()
	port := occupied.Addr().(*net.TCPAddr).Port

	l := newTestListener(port)
	require.NoError(t, l.Start(context.Background()))
	assert.True(t, l.IsRunning())

	// Stop succeeds and transitions to stopped without owning a server.
	require.NoError(t, l.Stop())
	assert.False(t, l.IsRunning())
}

func TestListenerRestart(t *testing.T) {
	port := freePort(t)
	l := newTestListener(port)

	require.NoError(t, l.Start(context.Background()))
	require.NoError(t, l.Stop())
	require.NoError(t, l.Start(context.Background()))
	assert.True(t, l.IsRunning())
	assert.Equal(t, fmt.Sprintf("127.0.0.1:%d", port), l.Addr())

	require.NoError(t, l.Stop())
}
