package store

import (
	"context"
	"sync"
	"time"

	"github.com/dunamismax/memoryflow/internal/domain"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	memories map[string]domain.Memory
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		memories: make(map[string]domain.Memory),
	}
}

func (s *InMemoryStore) Create(_ context.Context, memory domain.Memory) error {
	if err := memory.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories[memory.ID] = memory
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (domain.Memory, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	memory, ok := s.memories[id]
	return memory, ok, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id, status string) (domain.Memory, error) {
	return s.update(id, func(m *domain.Memory) {
		m.Status = status
	})
}

func (s *InMemoryStore) SetThumbnail(_ context.Context, id, thumbnailKey string) (domain.Memory, error) {
	return s.update(id, func(m *domain.Memory) {
		m.ThumbnailKey = thumbnailKey
		m.Status = domain.MemoryStatusReady
	})
}

func (s *InMemoryStore) update(id string, apply func(*domain.Memory)) (domain.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memory, ok := s.memories[id]
	if !ok {
		return domain.Memory{}, ErrMemoryNotFound
	}
	apply(&memory)
	memory.UpdatedAt = time.Now().UTC()
	s.memories[id] = memory
	return memory, nil
}
