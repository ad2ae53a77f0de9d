package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dunamismax/memoryflow/internal/domain"
	_ "github.com/lib/pq"
)

const memorySchemaSQL = `
CREATE TABLE IF NOT EXISTS memories (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	caption TEXT NOT NULL DEFAULT '',
	filename TEXT NOT NULL DEFAULT '',
	object_key TEXT NOT NULL,
	thumbnail_key TEXT NOT NULL DEFAULT '',
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	bytes INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

const memoryColumns = `id, status, caption, filename, object_key, thumbnail_key, width, height, bytes, created_at, updated_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, memorySchemaSQL); err != nil {
		return fmt.Errorf("ensure memories schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Create(ctx context.Context, m domain.Memory) error {
	if err := m.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO memories (`+memoryColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID,
		m.Status,
		m.Caption,
		m.Filename,
		m.ObjectKey,
		m.ThumbnailKey,
		m.Width,
		m.Height,
		m.Bytes,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (domain.Memory, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memoryColumns+` FROM memories WHERE id = $1`, id)

	var m domain.Memory
	if err := row.Scan(
		&m.ID,
		&m.Status,
		&m.Caption,
		&m.Filename,
		&m.ObjectKey,
		&m.ThumbnailKey,
		&m.Width,
		&m.Height,
		&m.Bytes,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Memory{}, false, nil
		}
		return domain.Memory{}, false, fmt.Errorf("query memory: %w", err)
	}
	return m, true, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id, status string) (domain.Memory, error) {
	return s.exec(ctx, id,
		`UPDATE memories SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
}

func (s *PostgresStore) SetThumbnail(ctx context.Context, id, thumbnailKey string) (domain.Memory, error) {
	return s.exec(ctx, id,
		`UPDATE memories SET thumbnail_key = $1, status = $2, updated_at = $3 WHERE id = $4`,
		thumbnailKey, domain.MemoryStatusReady, time.Now().UTC(), id,
	)
}

func (s *PostgresStore) exec(ctx context.Context, id, query string, args ...any) (domain.Memory, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Memory{}, fmt.Errorf("update memory: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Memory{}, ErrMemoryNotFound
	}

	m, ok, err := s.Get(ctx, id)
	if err != nil {
		return domain.Memory{}, err
	}
	if !ok {
		return domain.Memory{}, ErrMemoryNotFound
	}
	return m, nil
}
