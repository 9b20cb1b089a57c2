package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"hookrelay/internal/catalog"
	"hookrelay/internal/logger"
)

// State is the persisted registration document.
type State struct {
	Enabled       bool     `json:"enabled"`
	TargetGroups  []int64  `json:"target_groups"`
	EnabledEvents []string `json:"enabled_events"`
}

func defaultState() State {
	return State{
		Enabled:       true,
		TargetGroups:  []int64{},
		EnabledEvents: catalog.EventTypes(),
	}
}

// Store is the durable registration record backing the relay. Every
// mutation is serialized under one mutex and persisted before the call
// returns; a failed save keeps the in-memory effect and logs the error.
type Store struct {
	mu     sync.Mutex
	path   string
	state  State
	logger logger.Logger
}

func NewStore(path string, log logger.Logger) *Store {
	return &Store{
		path:   path,
		state:  defaultState(),
		logger: log,
	}
}

// Load reads the backing file, merging persisted values over defaults. A
// missing file is established immediately with the defaults; an unparseable
// file logs and keeps the defaults.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s.persistLocked()
	}
	if err != nil {
		s.logger.Errorw("Failed to read registration file, using defaults",
			"path", s.path,
			"error", err,
		)
		return nil
	}

	var persisted map[string]json.RawMessage
	if err := json.Unmarshal(data, &persisted); err != nil {
		s.logger.Errorw("Failed to parse registration file, using defaults",
			"path", s.path,
			"error", err,
		)
		return nil
	}

	// Persisted keys win; missing keys keep their defaults.
	if raw, ok := persisted["enabled"]; ok {
		var enabled bool
		if err := json.Unmarshal(raw, &enabled); err == nil {
			s.state.Enabled = enabled
		}
	}
	if raw, ok := persisted["target_groups"]; ok {
		var groups []int64
		if err := json.Unmarshal(raw, &groups); err == nil {
			s.state.TargetGroups = groups
		}
	}
	if raw, ok := persisted["enabled_events"]; ok {
		var events []string
		if err := json.Unmarshal(raw, &events); err == nil {
			s.state.EnabledEvents = events
		}
	}

	return nil
}

func (s *Store) IsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Enabled
}

func (s *Store) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Enabled = enabled
	s.saveLocked()
}

// AddDestination registers a fan-out target. Returns false without
// persisting when the destination is already present.
func (s *Store) AddDestination(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.state.TargetGroups {
		if existing == id {
			return false
		}
	}
	s.state.TargetGroups = append(s.state.TargetGroups, id)
	s.saveLocked()
	return true
}

func (s *Store) RemoveDestination(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.state.TargetGroups {
		if existing == id {
			s.state.TargetGroups = append(s.state.TargetGroups[:i], s.state.TargetGroups[i+1:]...)
			s.saveLocked()
			return true
		}
	}
	return false
}

func (s *Store) Destinations() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int64, len(s.state.TargetGroups))
	copy(out, s.state.TargetGroups)
	return out
}

func (s *Store) IsEventEnabled(eventType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.state.EnabledEvents {
		if existing == eventType {
			return true
		}
	}
	return false
}

func (s *Store) AddEvent(eventType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.state.EnabledEvents {
		if existing == eventType {
			return false
		}
	}
	s.state.EnabledEvents = append(s.state.EnabledEvents, eventType)
	s.saveLocked()
	return true
}

func (s *Store) RemoveEvent(eventType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.state.EnabledEvents {
		if existing == eventType {
			s.state.EnabledEvents = append(s.state.EnabledEvents[:i], s.state.EnabledEvents[i+1:]...)
			s.saveLocked()
			return true
		}
	}
	return false
}

func (s *Store) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.state.EnabledEvents))
	copy(out, s.state.EnabledEvents)
	return out
}

func (s *Store) saveLocked() {
	if err := s.persistLocked(); err != nil {
		s.logger.Errorw("Failed to persist registration state",
			"path", s.path,
			"error", err,
		)
	}
}

// persistLocked writes the full state document through a temp file and an
// atomic rename so a crash mid-write never leaves an unparseable file.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registration state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace registration file: %w", err)
	}

	return nil
}
