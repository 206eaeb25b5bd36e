// Package storage provides durable key-value storage for client session data.
//
// Several backends implement Storage: a no-op store for non-interactive
// contexts, an in-memory store, a bbolt file database, and a Redis store shared
// between processes. Any of them can be wrapped by SealedStorage to encrypt
// values at rest.
package storage

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnknownDriver indicates an unsupported storage driver name.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Storage persists string values by key.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Put writes all items atomically: either every item is stored or none.
	Put(items map[string]string) error
	// Delete removes keys. Absent keys are not an error.
	Delete(keys ...string) error
}

// Config selects and configures a storage backend.
type Config struct {
	// Driver is one of none, memory, bolt, redis.
	Driver        string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
	// Secret, when set, seals every value with a key derived from it.
	Secret string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured backend. The returned Closer releases it.
func Open(cfg Config) (Storage, io.Closer, error) {
	var (
		s      Storage
		closer io.Closer = nopCloser{}
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "none":
		s = NoopStorage{}
	case "memory":
		s = NewMemoryStorage()
	case "bolt":
		b, err := OpenBoltStorage(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		s, closer = b, b
	case "redis":
		r, err := NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		s, closer = r, r
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if cfg.Secret != "" {
		sealed, err := NewSealedStorage(s, []byte(cfg.Secret))
		if err != nil {
			_ = closer.Close()
			return nil, nil, err
		}
		s = sealed
	}
	return s, closer, nil
}
