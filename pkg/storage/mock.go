package storage

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/blossom-engine/pkg/scenario"
	"github.com/jwebster45206/blossom-engine/pkg/settings"
)

type mockSlot struct {
	blob      []byte
	updatedAt time.Time
}

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID][]byte
	slots     map[string]mockSlot
	settings  *settings.Settings
	catalogs  map[string]*scenario.Scenario
	pingError error
	locks     SessionLocks
	loadDelay time.Duration
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID][]byte),
		slots:    make(map[string]mockSlot),
		catalogs: make(map[string]*scenario.Scenario),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// AddCatalog registers a catalog under filename
func (m *MockStorage) AddCatalog(filename string, s *scenario.Scenario) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogs[filename] = s
}

// SetLoadDelay makes LoadSession wait before returning, like a network
// round trip would.
func (m *MockStorage) SetLoadDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadDelay = d
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveSession(ctx context.Context, id uuid.UUID, checkpoint []byte) error {
	if len(checkpoint) == 0 {
		return errors.New("checkpoint cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = slices.Clone(checkpoint)
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) ([]byte, error) {
	m.mu.RLock()
	delay := m.loadDelay
	data, exists := m.sessions[id]
	data = slices.Clone(data)
	m.mu.RUnlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return data, nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockStorage) LockSession(ctx context.Context, id uuid.UUID) (func(), error) {
	return m.locks.Lock(ctx, id)
}

func (m *MockStorage) SaveSlot(ctx context.Context, name string, blob []byte) error {
	if name == "" {
		return errors.New("slot name cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[name] = mockSlot{blob: slices.Clone(blob), updatedAt: time.Now().UTC()}
	return nil
}

func (m *MockStorage) LoadSlot(ctx context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slot, exists := m.slots[name]
	if !exists {
		return nil, ErrNotFound
	}
	return slices.Clone(slot.blob), nil
}

func (m *MockStorage) ListSlots(ctx context.Context) ([]SlotInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SlotInfo, 0, len(m.slots))
	for name, slot := range m.slots {
		out = append(out, SlotInfo{Name: name, UpdatedAt: slot.updatedAt, Size: len(slot.blob)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockStorage) DeleteSlot(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.slots[name]; !exists {
		return ErrNotFound
	}
	delete(m.slots, name)
	return nil
}

func (m *MockStorage) LoadSettings(ctx context.Context) (settings.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return settings.Default(), nil
	}
	return *m.settings, nil
}

func (m *MockStorage) SaveSettings(ctx context.Context, s settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}

func (m *MockStorage) ListCatalogs(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]string)
	for filename, s := range m.catalogs {
		result[s.Name] = filename
	}
	return result, nil
}

func (m *MockStorage) GetCatalog(ctx context.Context, filename string) (*scenario.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, exists := m.catalogs[filename]
	if !exists {
		return nil, ErrNotFound
	}
	return s, nil
}
