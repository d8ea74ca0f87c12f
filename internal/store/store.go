// internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when a key has never been written or was removed.
var ErrNotFound = errors.New("store: key not found")

// Store is the key-value persistence collaborator behind theme sessions.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

const defaultTenant = "default"

// Key scopes name to a tenant: tenant/<tenant>/<name>.
func Key(tenant, name string) string {
	tenant = strings.TrimSpace(tenant)
	if tenant == "" {
		tenant = defaultTenant
	}
	return fmt.Sprintf("tenant/%s/%s", tenant, name)
}

// Config selects and configures a Store implementation.
type Config struct {
	Driver   string
	Filename string
	Path     string
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Open builds the store named by cfg.Driver.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(cfg.Filename)
	case DriverFile:
		return NewFile(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
