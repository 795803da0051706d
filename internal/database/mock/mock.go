// Package mock provides an in-memory database.Backend for testing.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Backend is an in-memory implementation of database.Backend.
// Every document is deep-copied on load and save so callers cannot
// mutate stored state through shared slices.
type Backend struct {
	mu         sync.Mutex
	identities map[string]database.StoredIdentity
	active     []database.AttendanceEvent
	archive    database.Archive
	policy     *database.LocationPolicy

	// Error injection
	LoadIdentitiesError error
	SaveIdentitiesError error
	LoadActiveError     error
	SaveActiveError     error
	LoadArchiveError    error
	SaveArchiveError    error
	LoadPolicyError     error
	SavePolicyError     error

	// FailSaves makes the next N saves of any document fail with SaveFailure
	FailSaves   int
	SaveFailure error

	// Save counters
	IdentitySaves int
	ActiveSaves   int
	ArchiveSaves  int
	PolicySaves   int
}

var _ database.Backend = (*Backend)(nil)

// NewBackend creates an empty mock backend
func NewBackend() *Backend {
	return &Backend{
		identities: make(map[string]database.StoredIdentity),
		archive:    make(database.Archive),
	}
}

// Name returns "mock"
func (m *Backend) Name() string {
	return "mock"
}

// Close is a no-op
func (m *Backend) Close() error {
	return nil
}

// AddIdentity seeds an identity without counting a save
func (m *Backend) AddIdentity(identity database.StoredIdentity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[identity.ID] = identity
}

// SetActive seeds the active ledger without counting a save
func (m *Backend) SetActive(events []database.AttendanceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = append([]database.AttendanceEvent(nil), events...)
}

// SetArchive seeds the archive without counting a save
func (m *Backend) SetArchive(archive database.Archive) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archive = archive.Clone()
}

// SetPolicy seeds the policy without counting a save
func (m *Backend) SetPolicy(policy database.LocationPolicy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policy = &policy
}

// Active returns a copy of the stored active ledger
func (m *Backend) Active() []database.AttendanceEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.AttendanceEvent(nil), m.active...)
}

// Archive returns a copy of the stored archive
func (m *Backend) Archive() database.Archive {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.archive.Clone()
}

// Identities returns a copy of the stored roster
func (m *Backend) Identities() map[string]database.StoredIdentity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyIdentities(m.identities)
}

// failSave consumes one injected failure. Must be called with mu held.
func (m *Backend) failSave() error {
	if m.FailSaves > 0 {
		m.FailSaves--
		return m.SaveFailure
	}
	return nil
}

// LoadIdentities returns the stored roster
func (m *Backend) LoadIdentities(ctx context.Context) (map[string]database.StoredIdentity, error) {
	if m.LoadIdentitiesError != nil {
		return nil, m.LoadIdentitiesError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyIdentities(m.identities), nil
}

// SaveIdentities replaces the stored roster
func (m *Backend) SaveIdentities(ctx context.Context, identities map[string]database.StoredIdentity) error {
	if m.SaveIdentitiesError != nil {
		return m.SaveIdentitiesError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failSave(); err != nil {
		return err
	}
	m.IdentitySaves++
	m.identities = copyIdentities(identities)
	return nil
}

// LoadActive returns the stored active ledger
func (m *Backend) LoadActive(ctx context.Context) ([]database.AttendanceEvent, error) {
	if m.LoadActiveError != nil {
		return nil, m.LoadActiveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.AttendanceEvent(nil), m.active...), nil
}

// SaveActive replaces the stored active ledger
func (m *Backend) SaveActive(ctx context.Context, events []database.AttendanceEvent) error {
	if m.SaveActiveError != nil {
		return m.SaveActiveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failSave(); err != nil {
		return err
	}
	m.ActiveSaves++
	m.active = append([]database.AttendanceEvent(nil), events...)
	return nil
}

// LoadArchive returns the stored archive
func (m *Backend) LoadArchive(ctx context.Context) (database.Archive, error) {
	if m.LoadArchiveError != nil {
		return nil, m.LoadArchiveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.archive.Clone(), nil
}

// SaveArchive replaces the stored archive
func (m *Backend) SaveArchive(ctx context.Context, archive database.Archive) error {
	if m.SaveArchiveError != nil {
		return m.SaveArchiveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failSave(); err != nil {
		return err
	}
	m.ArchiveSaves++
	m.archive = archive.Clone()
	return nil
}

// LoadPolicy returns the stored policy or nil
func (m *Backend) LoadPolicy(ctx context.Context) (*database.LocationPolicy, error) {
	if m.LoadPolicyError != nil {
		return nil, m.LoadPolicyError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.policy == nil {
		return nil, nil
	}
	p := *m.policy
	return &p, nil
}

// SavePolicy replaces the stored policy
func (m *Backend) SavePolicy(ctx context.Context, policy database.LocationPolicy) error {
	if m.SavePolicyError != nil {
		return m.SavePolicyError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failSave(); err != nil {
		return err
	}
	m.PolicySaves++
	m.policy = &policy
	return nil
}

func copyIdentities(src map[string]database.StoredIdentity) map[string]database.StoredIdentity {
	dst := make(map[string]database.StoredIdentity, len(src))
	for id, identity := range src {
		identity.Template = append([]float32(nil), identity.Template...)
		dst[id] = identity
	}
	return dst
}
