package storage

import (
	"context"
	"fmt"
)

// Options selects and configures a backend.
type Options struct {
	Backend string // "gorm", "redis" or "memory"

	DBType string
	DSN    string

	Redis RedisOptions
}

// Open returns the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "gorm":
		return OpenGorm(opts.DBType, opts.DSN)
	case "redis":
		return OpenRedis(ctx, opts.Redis)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
