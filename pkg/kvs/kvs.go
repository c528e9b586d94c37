// Package kvs provides a TTL-bounded key-value store abstraction
// with Memory, LevelDB, and Redis implementations.
package kvs

import (
	"context"
	"errors"
	"time"
)

// Store is a key-value store with per-key TTL. All implementations
// must be safe for concurrent use.
type Store interface {
	// Get retrieves a value by key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A ttl of 0 means the key does not expire.
	// Setting an existing key resets its TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all live keys with the given prefix, in no
	// particular order. An empty prefix returns every key.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases resources. Operations after Close return ErrClosed.
	Close() error
}

var (
	// ErrNotFound is returned when a key is missing or expired.
	ErrNotFound = errors.New("kvs: key not found")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("kvs: store is closed")
)

// Config selects and configures a Store backend.
type Config struct {
	// Type is "memory", "leveldb", or "redis". Empty means memory.
	Type string `yaml:"type" json:"type"`

	// Namespace is prepended to every key as "<namespace>:". It keeps
	// this service's keys apart from other users of a shared backend.
	Namespace string `yaml:"namespace" json:"namespace"`

	Memory  MemoryConfig  `yaml:"memory" json:"memory"`
	LevelDB LevelDBConfig `yaml:"leveldb" json:"leveldb"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
}

// MemoryConfig configures the in-memory store.
type MemoryConfig struct {
	// CleanupInterval is how often expired keys are swept out.
	// Default: 1 minute.
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// LevelDBConfig configures the LevelDB store.
type LevelDBConfig struct {
	// Path is the database directory. Empty uses a directory under
	// the OS cache dir.
	Path string `yaml:"path" json:"path"`

	// CleanupInterval is how often expired keys are swept out.
	// Default: 1 minute.
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string `yaml:"addr" json:"addr"`

	// Password is the Redis password (optional).
	Password string `yaml:"password" json:"password"`

	// DB is the Redis database number.
	DB int `yaml:"db" json:"db"`

	// PoolSize is the maximum number of connections (0 = client default).
	PoolSize int `yaml:"pool_size" json:"pool_size"`
}

// New creates a Store from config.
func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryStore(cfg.Namespace, cfg.Memory), nil
	case "leveldb":
		return NewLevelDBStore(cfg.Namespace, cfg.LevelDB)
	case "redis":
		return NewRedisStore(cfg.Namespace, cfg.Redis)
	default:
		return nil, errors.New("kvs: unsupported store type: " + cfg.Type)
	}
}

func namespacePrefix(namespace string) string {
	if namespace == "" {
		return ""
	}
	return namespace + ":"
}
