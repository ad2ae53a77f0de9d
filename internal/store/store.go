package store

import (
	"context"
	"errors"
	"strings"

	"github.com/dunamismax/memoryflow/internal/domain"
)

var ErrMemoryNotFound = errors.New("memory not found")

type MemoryStore interface {
	Create(ctx context.Context, memory domain.Memory) error
	Get(ctx context.Context, id string) (domain.Memory, bool, error)
	UpdateStatus(ctx context.Context, id, status string) (domain.Memory, error)
	SetThumbnail(ctx context.Context, id, thumbnailKey string) (domain.Memory, error)
}

// Open returns a Postgres-backed store when dsn is set and a process-local
// store otherwise. The close func is always safe to call.
func Open(ctx context.Context, dsn string) (MemoryStore, func() error, error) {
	if strings.TrimSpace(dsn) == "" {
		return NewInMemoryStore(), func() error { return nil }, nil
	}
	pg, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}
