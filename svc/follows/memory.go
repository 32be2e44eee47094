package follows

import (
	"context"
	"sync"
)

// MemoryBackend is an in-process follow graph. It implements LegacyBackend,
// Store and Watcher.
type MemoryBackend struct {
	mu       sync.RWMutex
	follows  map[string]map[string]struct{}
	watchers map[string]map[int]func()
	nextID   int
}

// NewMemoryBackend returns an empty graph.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		follows:  make(map[string]map[string]struct{}),
		watchers: make(map[string]map[int]func()),
	}
}

func (m *MemoryBackend) IsFollowing(_ context.Context, followerID, targetID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.follows[followerID][targetID]
	return ok, nil
}

func (m *MemoryBackend) Follow(_ context.Context, followerID, targetID string) error {
	m.set(followerID, targetID, true)
	return nil
}

func (m *MemoryBackend) Unfollow(_ context.Context, followerID, targetID string) error {
	m.set(followerID, targetID, false)
	return nil
}

func (m *MemoryBackend) SetFollowing(_ context.Context, followerID, targetID string, follow bool) (bool, error) {
	m.set(followerID, targetID, follow)
	return follow, nil
}

// Watch implements Watcher. onChange runs synchronously on the writer's goroutine.
func (m *MemoryBackend) Watch(_ context.Context, followerID string, onChange func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	if m.watchers[followerID] == nil {
		m.watchers[followerID] = make(map[int]func())
	}
	m.watchers[followerID][id] = onChange

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.watchers[followerID], id)
	}
}

func (m *MemoryBackend) set(followerID, targetID string, follow bool) {
	m.mu.Lock()
	targets := m.follows[followerID]
	if follow {
		if targets == nil {
			targets = make(map[string]struct{})
			m.follows[followerID] = targets
		}
		targets[targetID] = struct{}{}
	} else {
		delete(targets, targetID)
	}
	notify := make([]func(), 0, len(m.watchers[followerID]))
	for _, fn := range m.watchers[followerID] {
		notify = append(notify, fn)
	}
	m.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
}
