// Package persist provides keyed durable stores for serialized annotations.
//
// A Backend maps string keys to opaque payloads. The annotation store writes
// one payload per storage key under Namespace(key). Backends are
// best-effort: callers log failures and carry on.
package persist

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotExist is returned by Get when the key holds no payload.
var ErrNotExist = errors.New("persisted value does not exist")

// NamespacePrefix prefixes every annotation storage key.
const NamespacePrefix = "annotations:"

// Namespace derives the durable key for a caller-supplied storage key.
func Namespace(storageKey string) string {
	return NamespacePrefix + storageKey
}

// StorageKeyOf strips the namespace prefix from a durable key.
func StorageKeyOf(key string) (string, bool) {
	if !strings.HasPrefix(key, NamespacePrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, NamespacePrefix), true
}

// StorageKey composes the conventional "{symbol}:{period}" storage key.
func StorageKey(symbol, period string) string {
	return symbol + ":" + period
}

// Backend is a keyed durable store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Kind names a backend implementation.
type Kind string

const (
	KindMemory Kind = "memory"
	KindJSON   Kind = "json"
	KindRedis  Kind = "redis"
	KindSQLite Kind = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Backend Kind `toml:"backend"`

	// json
	Directory string `toml:"dir"`

	// redis
	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"redis_password"`
	RedisDB        int    `toml:"redis_db"`
	RedisNamespace string `toml:"redis_namespace"`

	// sqlite
	SQLitePath string `toml:"sqlite_path"`
}

// Open creates the backend described by cfg.
func Open(cfg Config) (Backend, error) {
	switch cfg.Backend {
	case KindMemory, "":
		return NewMemory(), nil
	case KindJSON:
		return NewJSONDir(cfg.Directory)
	case KindRedis:
		return NewRedis(RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Namespace: cfg.RedisNamespace,
		})
	case KindSQLite:
		return NewSQLite(cfg.SQLitePath)
	}
	return nil, errors.Errorf("unknown store backend %q", cfg.Backend)
}
