// Package store persists one serialized GameState blob per room.
package store

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("snapshot not found")

// Store is the snapshot persistence contract. Save must be atomic per
// room: a failed write leaves the previous snapshot intact.
type Store interface {
	Save(ctx context.Context, roomID string, data []byte) error
	Load(ctx context.Context, roomID string) ([]byte, error)
	Delete(ctx context.Context, roomID string) error
}

// Memory is a mutex-guarded in-memory Store for tests and db-less dev.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Save(_ context.Context, roomID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[roomID] = cp
	return nil
}

func (m *Memory) Load(_ context.Context, roomID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *Memory) Delete(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, roomID)
	return nil
}
