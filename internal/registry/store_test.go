package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookrelay/internal/logger"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registration.json")
	return NewStore(path, logger.NopLogger()), path
}

func TestLoadEstablishesDefaults(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, store.Load())

	// A missing file is written immediately with the defaults.
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var state State
	require.NoError(t, json.Unmarshal(data, &state))
	assert.True(t, state.Enabled)
	assert.Empty(t, state.TargetGroups)
	assert.Len(t, state.EnabledEvents, 11)
	assert.Contains(t, state.EnabledEvents, "ping")
	assert.Contains(t, state.EnabledEvents, "pull_request")
}

func TestLoadMergesPersistedOverDefaults(t *testing.T) {
	store, path := newTestStore(t)

	// Partial document: only target_groups persisted.
	require.NoError(t, os.WriteFile(path, []byte(`{"target_groups": [123, 456]}`), 0o644))
	require.NoError(t, store.Load())

	assert.Equal(t, []int64{123, 456}, store.Destinations())
	// Missing keys keep their defaults.
	assert.True(t, store.IsEnabled())
	assert.Len(t, store.Events(), 11)
}

func TestLoadCorruptFileFallsBackToDefaults(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	require.NoError(t, store.Load())

	assert.True(t, store.IsEnabled())
	assert.Len(t, store.Events(), 11)
}

func TestDestinationRoundTrip(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Load())

	assert.True(t, store.AddDestination(42))
	assert.False(t, store.AddDestination(42), "duplicate add must be rejected")

	// A fresh store reading the same file sees the destination.
	reloaded := NewStore(path, logger.NopLogger())
	require.NoError(t, reloaded.Load())
	assert.Equal(t, []int64{42}, reloaded.Destinations())

	assert.True(t, reloaded.RemoveDestination(42))
	assert.False(t, reloaded.RemoveDestination(42), "removing an absent destination must fail")

	again := NewStore(path, logger.NopLogger())
	require.NoError(t, again.Load())
	assert.Empty(t, again.Destinations())
}

func TestEventRoundTrip(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Load())

	assert.True(t, store.IsEventEnabled("push"))
	assert.True(t, store.RemoveEvent("push"))
	assert.False(t, store.IsEventEnabled("push"))
	assert.False(t, store.RemoveEvent("push"))

	reloaded := NewStore(path, logger.NopLogger())
	require.NoError(t, reloaded.Load())
	assert.False(t, reloaded.IsEventEnabled("push"))

	assert.True(t, reloaded.AddEvent("push"))
	assert.False(t, reloaded.AddEvent("push"))
	assert.True(t, reloaded.IsEventEnabled("push"))
}

func TestSetEnabledPersists(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Load())

	store.SetEnabled(false)

	reloaded := NewStore(path, logger.NopLogger())
	require.NoError(t, reloaded.Load())
	assert.False(t, reloaded.IsEnabled())
}

func TestConcurrentMutationSafety(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Load())

	var wg sync.WaitGroup
	for i := int64(1); i <= 10; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			store.AddDestination(id)
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Destinations(), 10)
}

func TestPersistedFileAlwaysParseable(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Load())

	store.AddDestination(1)
	store.AddDestination(2)
	store.RemoveEvent("fork")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var state State
	require.NoError(t, json.Unmarshal(data, &state))
	assert.Equal(t, []int64{1, 2}, state.TargetGroups)
	assert.NotContains(t, state.EnabledEvents, "fork")
}
