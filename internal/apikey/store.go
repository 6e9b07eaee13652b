package apikey

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"crm-gateway/internal/db"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// PostgresStore reads keys from the api_keys table.
type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Lookup(ctx context.Context, accessKey string) (*Key, error) {
	var (
		k         Key
		expiresAt sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT access_key, secret_key, user_id, enabled, expires_at
		FROM api_keys
		WHERE access_key = $1
	`, accessKey).Scan(&k.AccessKey, &k.SecretKey, &k.UserID, &k.Enabled, &expiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		k.ExpiresAt = &t
	}
	return &k, nil
}

// CachedStore keeps recently used keys in memory for ttl so that API key
// traffic does not hit the database on every request. Misses are not cached.
type CachedStore struct {
	next  Store
	cache *expirable.LRU[string, *Key]
}

func NewCachedStore(next Store, size int, ttl time.Duration) *CachedStore {
	if size <= 0 {
		size = 1024
	}
	return &CachedStore{
		next:  next,
		cache: expirable.NewLRU[string, *Key](size, nil, ttl),
	}
}

func (c *CachedStore) Lookup(ctx context.Context, accessKey string) (*Key, error) {
	if k, ok := c.cache.Get(accessKey); ok {
		return k, nil
	}
	k, err := c.next.Lookup(ctx, accessKey)
	if err != nil {
		return nil, err
	}
	c.cache.Add(accessKey, k)
	return k, nil
}

// MemoryStore is a fixed key set, used for tests and local runs.
type MemoryStore map[string]Key

func (m MemoryStore) Lookup(_ context.Context, accessKey string) (*Key, error) {
	k, ok := m[accessKey]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return &k, nil
}
