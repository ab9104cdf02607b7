// Package rendercache stores the last successful render of each template.
package rendercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/infrastructure/config"
)

// New returns a redis-backed cache when cfg.Addr is set and an in-memory one otherwise.
func New(ctx context.Context, cfg config.RedisConfig) (ports.RenderCache, func() error, error) {
	if cfg.Addr == "" {
		return NewMemory(), func() error { return nil }, nil
	}
	c, err := NewRedis(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

// Redis keeps renders in redis under a key prefix with a TTL.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to redis and checks the connection.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{rdb: rdb, prefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

// Close closes the redis connection.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Get returns the cached render, or nil on a miss.
func (r *Redis) Get(ctx context.Context, templateHash string) (*ports.CachedRender, error) {
	raw, err := r.rdb.Get(ctx, r.prefix+templateHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached render: %w", err)
	}

	var render ports.CachedRender
	if err := json.Unmarshal(raw, &render); err != nil {
		return nil, fmt.Errorf("decoding cached render: %w", err)
	}
	return &render, nil
}

// Put stores a render, replacing any previous one for the same template.
func (r *Redis) Put(ctx context.Context, templateHash string, render ports.CachedRender) error {
	raw, err := json.Marshal(render)
	if err != nil {
		return fmt.Errorf("encoding render: %w", err)
	}
	if err := r.rdb.Set(ctx, r.prefix+templateHash, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("caching render: %w", err)
	}
	return nil
}

// Memory keeps renders in process memory. Entries live until the process exits.
type Memory struct {
	mu      sync.RWMutex
	renders map[string]ports.CachedRender
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{renders: make(map[string]ports.CachedRender)}
}

// Get returns the cached render, or nil on a miss.
func (m *Memory) Get(_ context.Context, templateHash string) (*ports.CachedRender, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	render, ok := m.renders[templateHash]
	if !ok {
		return nil, nil
	}
	return &render, nil
}

// Put stores a render.
func (m *Memory) Put(_ context.Context, templateHash string, render ports.CachedRender) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renders[templateHash] = render
	return nil
}
