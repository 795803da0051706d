// Package roster keeps the registered identities and their face templates.
package roster

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// Hasher turns secrets into stored credentials and checks them
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(credential, secret string) bool
}

// Identity is the public view of a registered person
type Identity struct {
	ID           string    `json:"user_id"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
	HasPassword  bool      `json:"has_password"`
}

// Registration is the input to Register
type Registration struct {
	ID       string
	Name     string
	Password string
	Template []float32
}

// Roster is the in-memory identity map and template cache, persisted as one
// document. The candidate slice is the template cache; it is rebuilt in the
// same critical section that changes the identity map.
type Roster struct {
	mu         sync.RWMutex
	identities map[string]database.StoredIdentity
	candidates []facematch.Candidate

	store    database.IdentityStore
	hasher   Hasher
	distance facematch.DistanceFunc
	now      func() time.Time
}

// New loads the roster from store
func New(ctx context.Context, store database.IdentityStore, hasher Hasher, distance facematch.DistanceFunc) (*Roster, error) {
	identities, err := store.LoadIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if identities == nil {
		identities = make(map[string]database.StoredIdentity)
	}

	r := &Roster{
		identities: identities,
		store:      store,
		hasher:     hasher,
		distance:   distance,
		now:        time.Now,
	}
	r.candidates = buildCandidates(identities)
	return r, nil
}

// SetClock replaces the registration timestamp source
func (r *Roster) SetClock(now func() time.Time) {
	r.now = now
}

// Count returns the number of registered identities
func (r *Roster) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.identities)
}

// CacheSize returns the number of templates in the match cache
func (r *Roster) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.candidates)
}

// Get returns an identity by ID
func (r *Roster) Get(id string) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.identities[id]
	if !ok {
		return Identity{}, false
	}
	return toIdentity(stored), true
}

// List returns identities ordered by ID. A non-empty query keeps only names
// matching it after case and diacritic folding.
func (r *Roster) List(query string) []Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(r.identities))
	out := make([]Identity, 0, len(ids))
	for _, id := range ids {
		stored := r.identities[id]
		if !facematch.NameMatches(stored.Name, query) {
			continue
		}
		out = append(out, toIdentity(stored))
	}
	return out
}

// Match finds the best identity for a probe template at threshold.
// The second value is the best similarity observed, even without a match.
func (r *Roster) Match(probe []float32, threshold float64) (*facematch.MatchResult, float64) {
	r.mu.RLock()
	candidates := r.candidates
	r.mu.RUnlock()

	// Candidates are replaced, never mutated in place, so the snapshot is safe to read unlocked.
	return facematch.Match(probe, candidates, threshold, r.distance)
}

// Register enrolls a new identity. The duplicate checks, the write and the
// cache update happen under one lock so concurrent registrations of the same
// ID or face cannot both succeed.
func (r *Roster) Register(ctx context.Context, reg Registration, duplicateThreshold float64) (Identity, error) {
	reg.ID = strings.TrimSpace(reg.ID)
	reg.Name = strings.TrimSpace(reg.Name)
	if reg.ID == "" || reg.Name == "" {
		return Identity{}, apperr.Validation("user_id and name are required")
	}
	if len(reg.Template) == 0 {
		return Identity{}, apperr.Validation("face template is required")
	}

	credential, err := r.hasher.Hash(reg.Password)
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.identities[reg.ID]; exists {
		return Identity{}, apperr.Conflict("user ID already exists").WithDetail("user_id", reg.ID)
	}

	if dup, similarity := facematch.Match(reg.Template, r.candidates, duplicateThreshold, r.distance); dup != nil {
		return Identity{}, apperr.Conflict(fmt.Sprintf("face already registered as %s (similarity: %.2f%%)", dup.Name, similarity*100)).
			WithDetail("user_id", dup.IdentityID)
	}

	stored := database.StoredIdentity{
		ID:           reg.ID,
		Name:         reg.Name,
		Template:     append([]float32(nil), reg.Template...),
		Credential:   credential,
		RegisteredAt: r.now(),
	}

	next := maps.Clone(r.identities)
	next[stored.ID] = stored
	if err := r.persist(ctx, next); err != nil {
		return Identity{}, err
	}

	r.identities = next
	r.candidates = buildCandidates(next)
	return toIdentity(stored), nil
}

// Delete removes an identity. Attendance events that reference it are kept.
func (r *Roster) Delete(ctx context.Context, id string) (Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.identities[id]
	if !ok {
		return Identity{}, apperr.NotFound("user not found").WithDetail("user_id", id)
	}

	next := maps.Clone(r.identities)
	delete(next, id)
	if err := r.persist(ctx, next); err != nil {
		return Identity{}, err
	}

	r.identities = next
	r.candidates = buildCandidates(next)
	return toIdentity(stored), nil
}

// Authenticate checks an identity's password
func (r *Roster) Authenticate(id, password string) (Identity, error) {
	r.mu.RLock()
	stored, ok := r.identities[strings.TrimSpace(id)]
	r.mu.RUnlock()

	if !ok || stored.Credential == "" || !r.hasher.Verify(stored.Credential, password) {
		return Identity{}, apperr.Auth("invalid credentials")
	}
	return toIdentity(stored), nil
}

func (r *Roster) persist(ctx context.Context, identities map[string]database.StoredIdentity) error {
	return database.RetryOnce(ctx, database.DocumentIdentities, func(ctx context.Context) error {
		return r.store.SaveIdentities(ctx, identities)
	})
}

// buildCandidates returns the match cache ordered by identity ID so that
// ties in Match resolve deterministically.
func buildCandidates(identities map[string]database.StoredIdentity) []facematch.Candidate {
	candidates := make([]facematch.Candidate, 0, len(identities))
	for _, id := range slices.Sorted(maps.Keys(identities)) {
		stored := identities[id]
		candidates = append(candidates, facematch.Candidate{
			IdentityID: id,
			Name:       stored.Name,
			Template:   stored.Template,
		})
	}
	return candidates
}

func toIdentity(stored database.StoredIdentity) Identity {
	return Identity{
		ID:           stored.ID,
		Name:         stored.Name,
		RegisteredAt: stored.RegisteredAt,
		HasPassword:  stored.Credential != "",
	}
}
