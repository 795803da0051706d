package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// legacyTimeLayouts are tried in order when parsing timestamps written without a zone
var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Snapshot is the full content of a data directory
type Snapshot struct {
	Identities map[string]database.StoredIdentity
	Active     []database.AttendanceEvent
	Archive    database.Archive
	Policy     *database.LocationPolicy
}

// Count returns the number of records in the snapshot
func (s *Snapshot) Count() int {
	n := len(s.Identities) + len(s.Active) + s.Archive.Total()
	if s.Policy != nil {
		n++
	}
	return n
}

type legacyIdentity struct {
	Name         string    `json:"name"`
	Template     []float32 `json:"face_encoding"`
	Credential   string    `json:"password_hash"`
	RegisteredAt string    `json:"registered_at"`
}

type legacyEvent struct {
	database.AttendanceEvent
	Timestamp string `json:"timestamp"`
}

// ReadLegacy loads a data directory written by older releases, whose timestamps
// carry no zone offset. Naive timestamps are interpreted in loc.
func ReadLegacy(dir string, loc *time.Location) (*Snapshot, error) {
	if loc == nil {
		loc = time.Local
	}
	snap := &Snapshot{
		Identities: make(map[string]database.StoredIdentity),
		Archive:    make(database.Archive),
	}

	var users map[string]legacyIdentity
	if err := readDocument(dir, UsersFile, &users); err != nil {
		return nil, err
	}
	for id, u := range users {
		registeredAt, err := parseLegacyTime(u.RegisteredAt, loc)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", id, err)
		}
		snap.Identities[id] = database.StoredIdentity{
			ID:           id,
			Name:         u.Name,
			Template:     u.Template,
			Credential:   u.Credential,
			RegisteredAt: registeredAt,
		}
	}

	var active []legacyEvent
	if err := readDocument(dir, ActiveFile, &active); err != nil {
		return nil, err
	}
	converted, err := convertLegacyEvents(active, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ActiveFile, err)
	}
	snap.Active = converted

	var archive map[string][]legacyEvent
	if err := readDocument(dir, ArchiveFile, &archive); err != nil {
		return nil, err
	}
	for period, events := range archive {
		converted, err := convertLegacyEvents(events, loc)
		if err != nil {
			return nil, fmt.Errorf("%s period %s: %w", ArchiveFile, period, err)
		}
		snap.Archive[period] = converted
	}

	var policy database.LocationPolicy
	err = readDocument(dir, PolicyFile, &policy)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		snap.Policy = &policy
	}

	return snap, nil
}

func convertLegacyEvents(events []legacyEvent, loc *time.Location) ([]database.AttendanceEvent, error) {
	out := make([]database.AttendanceEvent, 0, len(events))
	for i, e := range events {
		ts, err := parseLegacyTime(e.Timestamp, loc)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		event := e.AttendanceEvent
		event.Timestamp = ts
		if event.Status == "" {
			event.Status = database.StatusPresent
		}
		out = append(out, event)
	}
	return out, nil
}

func parseLegacyTime(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// readDocument decodes a file. A missing file leaves v untouched and only the
// policy document reports fs.ErrNotExist, since it alone has a default.
func readDocument(dir, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		if name == PolicyFile {
			return err
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
