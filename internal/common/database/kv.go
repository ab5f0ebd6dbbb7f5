// internal/common/database/kv.go
package database

import (
	"context"
	"fmt"
	"sync"

	"worth-it/internal/common/config"
)

// KV is the string key-value capability every storage backend provides.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// MemoryKV keeps values in process memory. It is the default backend and the
// one used in tests.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len reports how many keys are stored.
func (m *MemoryKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// PrefixedKV namespaces every key of an underlying backend, so several users
// or environments can share one store.
type PrefixedKV struct {
	next   KV
	prefix string
}

// WithPrefix wraps kv; an empty prefix returns kv unchanged.
func WithPrefix(kv KV, prefix string) KV {
	if prefix == "" {
		return kv
	}
	return &PrefixedKV{next: kv, prefix: prefix}
}

func (p *PrefixedKV) Get(ctx context.Context, key string) (string, bool, error) {
	return p.next.Get(ctx, p.prefix+key)
}

func (p *PrefixedKV) Set(ctx context.Context, key, value string) error {
	return p.next.Set(ctx, p.prefix+key, value)
}

func (p *PrefixedKV) Remove(ctx context.Context, key string) error {
	return p.next.Remove(ctx, p.prefix+key)
}

// Open connects the backend selected by cfg.Storage and returns it together
// with a close function. Network backends are pinged before being returned.
func Open(ctx context.Context, cfg *config.Config) (KV, func() error, error) {
	var (
		kv     KV
		closer func() error
	)

	switch cfg.Storage.Backend {
	case config.BackendMemory, "":
		kv, closer = NewMemoryKV(), func() error { return nil }

	case config.BackendRedis:
		client, err := NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		kv, closer = NewRedisKV(client.Client), client.Close

	case config.BackendPostgres:
		client, err := NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("postgres ping failed: %w", err)
		}
		pkv := NewPostgresKV(client.DB, cfg.Database.Postgres.Table)
		if err := pkv.EnsureSchema(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		kv, closer = pkv, client.Close

	case config.BackendElasticsearch:
		client, err := NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(ctx); err != nil {
			return nil, nil, err
		}
		kv, closer = NewElasticsearchKV(client.Client, cfg.Database.Elasticsearch.Index), func() error { return nil }

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	return WithPrefix(kv, cfg.Storage.KeyPrefix), closer, nil
}
