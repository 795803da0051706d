// Package jsonfile stores the attendance documents as JSON files in a data directory.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// File names inside the data directory
const (
	UsersFile   = "users.json"
	ActiveFile  = "attendance.json"
	ArchiveFile = "monthly_attendance.json"
	PolicyFile  = "location_settings.json"
)

const (
	filePerm    = 0o644
	dataDirPerm = 0o755
)

func init() {
	database.RegisterBackend(database.BackendJSONFile, func(ctx context.Context, cfg *config.DatabaseConfig) (database.Backend, error) {
		return Open(cfg.DataDir)
	})
}

// Store is a database.Backend writing one JSON document per file
type Store struct {
	dir string
	mu  sync.Mutex // serializes writes to the same directory
}

var _ database.Backend = (*Store)(nil)

// Open creates the data directory when missing and returns a store rooted at it
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(dir, dataDirPerm); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Name returns the backend name
func (s *Store) Name() string {
	return database.BackendJSONFile
}

// Dir returns the data directory
func (s *Store) Dir() string {
	return s.dir
}

// Close is a no-op, every write is already durable
func (s *Store) Close() error {
	return nil
}

// LoadIdentities reads users.json
func (s *Store) LoadIdentities(ctx context.Context) (map[string]database.StoredIdentity, error) {
	identities := make(map[string]database.StoredIdentity)
	if err := s.read(UsersFile, &identities); err != nil {
		return nil, err
	}
	for id, identity := range identities {
		identity.ID = id
		identities[id] = identity
	}
	return identities, nil
}

// SaveIdentities writes users.json
func (s *Store) SaveIdentities(ctx context.Context, identities map[string]database.StoredIdentity) error {
	if identities == nil {
		identities = map[string]database.StoredIdentity{}
	}
	return s.write(ctx, UsersFile, identities)
}

// LoadActive reads attendance.json
func (s *Store) LoadActive(ctx context.Context) ([]database.AttendanceEvent, error) {
	var events []database.AttendanceEvent
	if err := s.read(ActiveFile, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// SaveActive writes attendance.json
func (s *Store) SaveActive(ctx context.Context, events []database.AttendanceEvent) error {
	if events == nil {
		events = []database.AttendanceEvent{}
	}
	return s.write(ctx, ActiveFile, events)
}

// LoadArchive reads monthly_attendance.json
func (s *Store) LoadArchive(ctx context.Context) (database.Archive, error) {
	archive := make(database.Archive)
	if err := s.read(ArchiveFile, &archive); err != nil {
		return nil, err
	}
	return archive, nil
}

// SaveArchive writes monthly_attendance.json
func (s *Store) SaveArchive(ctx context.Context, archive database.Archive) error {
	if archive == nil {
		archive = database.Archive{}
	}
	return s.write(ctx, ArchiveFile, archive)
}

// LoadPolicy reads location_settings.json, returning nil when the file does not exist
func (s *Store) LoadPolicy(ctx context.Context) (*database.LocationPolicy, error) {
	var policy database.LocationPolicy
	if err := s.read(PolicyFile, &policy); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return &policy, nil
}

// SavePolicy writes location_settings.json
func (s *Store) SavePolicy(ctx context.Context, policy database.LocationPolicy) error {
	return s.write(ctx, PolicyFile, policy)
}

func (s *Store) read(name string, v any) error {
	return readDocument(s.dir, name, v)
}

func (s *Store) write(ctx context.Context, name string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := renameio.WriteFile(filepath.Join(s.dir, name), data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
