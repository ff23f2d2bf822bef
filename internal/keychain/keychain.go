// Package keychain keeps the portal session token between runs.
package keychain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"portalsync/internal/components/assert"
	"portalsync/internal/components/chrono"
	"portalsync/internal/db"
	"portalsync/internal/model"
	"time"

	cache "github.com/patrickmn/go-cache"
)

const SESSION_TOKEN = "session_token"

// Store holds named secrets. Get returns model.ErrNotFound for missing or
// expired secrets.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	Clear(ctx context.Context, name string) error
}

// SQLite persists secrets in the keychain table, a ttl of 0 never expires.
type SQLite struct {
	qry  *db.Queries
	ttl  time.Duration
	time chrono.TimeAPI
}

func NewSQLite(qry *db.Queries, ttl time.Duration, timeApi chrono.TimeAPI) SQLite {
	assert.NotNil(qry)
	assert.NotNil(timeApi)
	return SQLite{qry: qry, ttl: ttl, time: timeApi}
}

func (s SQLite) Get(ctx context.Context, name string) (string, error) {
	row, err := s.qry.GetSecret(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	if row.ExpiresAt > 0 && s.time.Now().UnixMilli() >= row.ExpiresAt {
		err = s.qry.DeleteExpiredSecrets(ctx, s.time.Now().UnixMilli())
		if err != nil {
			return "", fmt.Errorf("delete expired secrets: %w", err)
		}
		return "", model.ErrNotFound
	}
	return row.Value, nil
}

func (s SQLite) Set(ctx context.Context, name, value string) error {
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = s.time.Now().Add(s.ttl).UnixMilli()
	}
	err := s.qry.SetSecret(ctx, db.SetSecretParams{
		Name:      name,
		Value:     value,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return fmt.Errorf("set secret %s: %w", name, err)
	}
	return nil
}

func (s SQLite) Clear(ctx context.Context, name string) error {
	err := s.qry.DeleteSecret(ctx, name)
	if err != nil {
		return fmt.Errorf("clear secret %s: %w", name, err)
	}
	return nil
}

// Memory keeps secrets for the lifetime of the process.
type Memory struct {
	cache *cache.Cache
}

func NewMemory(ttl time.Duration) Memory {
	expiration := cache.NoExpiration
	if ttl > 0 {
		expiration = ttl
	}
	return Memory{cache: cache.New(expiration, 10*time.Minute)}
}

func (m Memory) Get(ctx context.Context, name string) (string, error) {
	value, ok := m.cache.Get(name)
	if !ok {
		return "", model.ErrNotFound
	}
	return value.(string), nil
}

func (m Memory) Set(ctx context.Context, name, value string) error {
	m.cache.SetDefault(name, value)
	return nil
}

func (m Memory) Clear(ctx context.Context, name string) error {
	m.cache.Delete(name)
	return nil
}
