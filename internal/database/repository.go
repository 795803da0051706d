package database

import (
	"context"
)

// IdentityStore persists the roster as a single document
type IdentityStore interface {
	// LoadIdentities returns all identities keyed by ID, empty when nothing was saved yet
	LoadIdentities(ctx context.Context) (map[string]StoredIdentity, error)
	// SaveIdentities replaces the whole roster
	SaveIdentities(ctx context.Context, identities map[string]StoredIdentity) error
}

// LedgerStore persists the active period's events
type LedgerStore interface {
	// LoadActive returns the active ledger in append order
	LoadActive(ctx context.Context) ([]AttendanceEvent, error)
	// SaveActive replaces the whole active ledger
	SaveActive(ctx context.Context, events []AttendanceEvent) error
}

// ArchiveStore persists closed periods
type ArchiveStore interface {
	LoadArchive(ctx context.Context) (Archive, error)
	SaveArchive(ctx context.Context, archive Archive) error
}

// PolicyStore persists the geofence policy
type PolicyStore interface {
	// LoadPolicy returns nil when no policy has been saved
	LoadPolicy(ctx context.Context) (*LocationPolicy, error)
	SavePolicy(ctx context.Context, policy LocationPolicy) error
}

// Backend bundles the four document stores of a storage backend
type Backend interface {
	IdentityStore
	LedgerStore
	ArchiveStore
	PolicyStore

	// Name identifies the backend in logs and status output
	Name() string
	Close() error
}
