package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/sonobill/internal/sql"
	"github.com/gyeh/sonobill/internal/store"
)

// Store is the Postgres backend of store.KV. Each document is one row in
// sonobill.documents with a JSONB body.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

var _ store.KV = (*Store)(nil)

// Open connects to dsn and applies migrations.
func Open(ctx context.Context, dsn string, log zerolog.Logger) (*Store, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}
	return NewStore(pool, log), nil
}

// NewStore wraps an existing pool. Migrations must already be applied.
func NewStore(pool *pgxpool.Pool, log zerolog.Logger) *Store {
	return &Store{pool: pool, log: log}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var body string
	err := s.pool.QueryRow(ctx, embedsql.GetDocument, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", key, err)
	}
	return []byte(body), nil
}

// Put replaces the document. The body must be valid JSON.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.pool.Exec(ctx, embedsql.PutDocument, key, string(value)); err != nil {
		return fmt.Errorf("put document %s: %w", key, err)
	}
	s.log.Debug().Str("key", key).Int("bytes", len(value)).Msg("document written")
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, embedsql.DeleteDocument, key); err != nil {
		return fmt.Errorf("delete document %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
