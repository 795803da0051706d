package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/config"
)

// Opener creates a backend from configuration
type Opener func(ctx context.Context, cfg *config.DatabaseConfig) (Backend, error)

// Backend names
const (
	BackendJSONFile = "jsonfile"
	BackendPostgres = "postgres"
)

var (
	openers   = make(map[string]Opener)
	openersMu sync.RWMutex
)

// RegisterBackend registers a backend constructor.
// This is called by the backend packages to avoid import cycles.
func RegisterBackend(name string, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[name] = open
}

// RegisteredBackends returns the names of all registered backends
func RegisteredBackends() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()
	names := make([]string, 0, len(openers))
	for name := range openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BackendName picks postgres when a database URL is configured, the JSON file store otherwise
func BackendName(cfg *config.DatabaseConfig) string {
	if cfg.URL != "" {
		return BackendPostgres
	}
	return BackendJSONFile
}

// Open opens the backend selected by cfg
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Backend, error) {
	name := BackendName(cfg)

	openersMu.RLock()
	open, ok := openers[name]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage backend %q not registered", name)
	}

	backend, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", name, err)
	}
	return backend, nil
}
