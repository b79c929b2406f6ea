package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// CartKey is the single key holding the serialized cart.
const CartKey = "cart"

// KV is the durable key-value storage the cart is written through to.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

type sqlStore struct {
	db *sql.DB
}

// NewSQLStore keeps values in the kv_store table. The upsert works on both
// SQLite and Postgres.
func NewSQLStore(db *sql.DB) KV {
	return &sqlStore{db: db}
}

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM kv_store WHERE store_key = $1`, key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrPersistence, key, err)
	}
	return []byte(payload), nil
}

func (s *sqlStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (store_key, payload, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (store_key) DO UPDATE
		SET payload = excluded.payload, updated_at = excluded.updated_at
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPersistence, key, err)
	}
	return nil
}

type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore is a KV that lives as long as the process.
func NewMemoryStore() KV {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memoryStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
