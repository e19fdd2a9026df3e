package presets

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps presets for the life of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	presets map[string]Preset
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{presets: make(map[string]Preset), now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, p Preset) (Preset, error) {
	p, err := validate(p)
	if err != nil {
		return Preset{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.nameTaken(p.Name, "") {
		return Preset{}, fmt.Errorf("%w: %q", ErrExists, p.Name)
	}
	p.ID = uuid.New().String()
	p.CreatedAt = m.now().UTC()
	p.UpdatedAt = p.CreatedAt
	m.presets[p.ID] = p
	return p, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.presets[id]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// List returns presets sorted by name.
func (m *MemoryStore) List(_ context.Context) ([]Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Preset, 0, len(m.presets))
	for _, p := range m.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) Update(_ context.Context, p Preset) (Preset, error) {
	p, err := validate(p)
	if err != nil {
		return Preset{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.presets[p.ID]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	if m.nameTaken(p.Name, p.ID) {
		return Preset{}, fmt.Errorf("%w: %q", ErrExists, p.Name)
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = m.now().UTC()
	m.presets[p.ID] = p
	return p, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.presets[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.presets, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// nameTaken must be called with mu held.
func (m *MemoryStore) nameTaken(name, exceptID string) bool {
	for id, p := range m.presets {
		if id != exceptID && p.Name == name {
			return true
		}
	}
	return false
}
