package progress

import (
	"context"
	"slices"
	"sync"
)

// MemoryBackend keeps entries in process. It implements both LegacyBackend
// and Store.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[[2]string][]Entry
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[[2]string][]Entry)}
}

func (m *MemoryBackend) UserWiggPoints(_ context.Context, userID, mediaID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.entries[[2]string{userID, mediaID}]), nil
}

func (m *MemoryBackend) InsertWiggPoint(_ context.Context, userID, mediaID string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{userID, mediaID}
	m.entries[key] = append(m.entries[key], e)
	return nil
}

func (m *MemoryBackend) ListEntries(ctx context.Context, userID, mediaID string) ([]Entry, error) {
	return m.UserWiggPoints(ctx, userID, mediaID)
}

func (m *MemoryBackend) AddEntry(ctx context.Context, userID, mediaID string, e Entry) error {
	return m.InsertWiggPoint(ctx, userID, mediaID, e)
}
