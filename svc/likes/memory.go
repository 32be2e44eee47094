package likes

import (
	"context"
	"sync"
)

// MemoryBackend keeps likes in process. It implements both LegacyBackend
// and Store, so both adapters can share one set of rows.
type MemoryBackend struct {
	mu    sync.RWMutex
	likes map[string]map[string]struct{}
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{likes: make(map[string]map[string]struct{})}
}

func (m *MemoryBackend) LikeCount(_ context.Context, pointID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.likes[pointID]), nil
}

func (m *MemoryBackend) HasLiked(_ context.Context, pointID, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.likes[pointID][userID]
	return ok, nil
}

func (m *MemoryBackend) InsertLike(_ context.Context, pointID, userID string) error {
	m.set(pointID, userID, true)
	return nil
}

func (m *MemoryBackend) DeleteLike(_ context.Context, pointID, userID string) error {
	m.set(pointID, userID, false)
	return nil
}

func (m *MemoryBackend) Aggregate(ctx context.Context, pointID, userID string) (Likes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, liked := m.likes[pointID][userID]
	return Likes{Liked: liked && userID != "", Count: len(m.likes[pointID])}, nil
}

func (m *MemoryBackend) SetLiked(ctx context.Context, pointID, userID string, liked bool) (Likes, error) {
	m.set(pointID, userID, liked)
	return m.Aggregate(ctx, pointID, userID)
}

func (m *MemoryBackend) set(pointID, userID string, liked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := m.likes[pointID]
	if !liked {
		delete(users, userID)
		return
	}
	if users == nil {
		users = make(map[string]struct{})
		m.likes[pointID] = users
	}
	users[userID] = struct{}{}
}
