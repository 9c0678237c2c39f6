package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// Collection names persisted in the key-value backend.
const (
	Students       = "students"
	Teachers       = "teachers"
	Attendance     = "attendance"
	CurrentSession = "currentSession"
	AuditLog       = "auditLog"
)

// KV is a durable string key-value store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Backend is a KV that can report connectivity and release its resources.
type Backend interface {
	KV
	Healthy(ctx context.Context) bool
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend     string // memory, sqlite, redis or postgres
	SQLitePath  string
	RedisAddr   string
	RedisPrefix string
	DatabaseURL string
}

// Open returns the backend named in opts.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		r := NewRedis(opts.RedisAddr, opts.RedisPrefix)
		if !r.Healthy(ctx) {
			_ = r.Close()
			return nil, fmt.Errorf("redis %s not reachable", opts.RedisAddr)
		}
		return r, nil
	case "sqlite":
		return NewSQLite(ctx, opts.SQLitePath)
	case "postgres":
		return NewDB(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// Load decodes the named collection. A missing, unreadable or corrupt value
// yields an empty collection.
func Load[T any](ctx context.Context, kv KV, name string) []T {
	raw, ok, err := kv.Get(ctx, name)
	if err != nil {
		log.Printf("store: read %s failed, treating as empty: %v", name, err)
		return []T{}
	}
	if !ok || raw == "" {
		return []T{}
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("store: %s is not valid JSON, treating as empty: %v", name, err)
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	return out
}

// LoadOne decodes a single-record value such as the current session, or nil.
func LoadOne[T any](ctx context.Context, kv KV, name string) *T {
	raw, ok, err := kv.Get(ctx, name)
	if err != nil {
		log.Printf("store: read %s failed, treating as absent: %v", name, err)
		return nil
	}
	if !ok || raw == "" || raw == "null" {
		return nil
	}
	out := new(T)
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("store: %s is not valid JSON, treating as absent: %v", name, err)
		return nil
	}
	return out
}

// Save encodes v as JSON under name.
func Save(ctx context.Context, kv KV, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := kv.Set(ctx, name, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// Remove deletes the named value.
func Remove(ctx context.Context, kv KV, name string) error {
	if err := kv.Delete(ctx, name); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
