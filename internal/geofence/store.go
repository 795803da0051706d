package geofence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// Store holds the current policy in memory, backed by a database.PolicyStore.
type Store struct {
	mu       sync.RWMutex
	policy   Policy
	backend  database.PolicyStore
	validate *validator.Validate
}

// NewStore loads the persisted policy, falling back to def when none was saved.
func NewStore(ctx context.Context, backend database.PolicyStore, def Policy) (*Store, error) {
	stored, err := backend.LoadPolicy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load location settings: %w", err)
	}

	policy := def
	if stored != nil {
		policy = FromStored(*stored)
	}

	return &Store{
		policy:   policy,
		backend:  backend,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Get returns a snapshot of the current policy
func (s *Store) Get() Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// Validate checks coordinates against the current policy
func (s *Store) Validate(lat, lon *float64) (bool, string) {
	return Validate(s.Get(), lat, lon)
}

// Update validates and persists a new policy, then makes it current.
// The in-memory policy is left unchanged when persisting fails.
func (s *Store) Update(ctx context.Context, p Policy) (Policy, error) {
	p.LocationName = strings.TrimSpace(p.LocationName)
	if err := s.validate.Struct(p); err != nil {
		return Policy{}, apperr.Wrap(apperr.KindValidation, validationMessage(err), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := database.RetryOnce(ctx, database.DocumentPolicy, func(ctx context.Context) error {
		return s.backend.SavePolicy(ctx, p.Stored())
	})
	if err != nil {
		return Policy{}, err
	}

	s.policy = p
	return p, nil
}

// validationMessage names the first invalid field in the JSON vocabulary of the policy.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid location settings"
	}

	switch fieldErrs[0].Field() {
	case "Latitude":
		return "latitude must be between -90 and 90"
	case "Longitude":
		return "longitude must be between -180 and 180"
	case "RadiusMeters":
		return "radius must not be negative"
	case "LocationName":
		return "location_name is required"
	default:
		return "invalid location settings"
	}
}
