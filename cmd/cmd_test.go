package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/jsonfile"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func TestNewLogger(t *testing.T) {
	if _, err := newLogger("debug"); err != nil {
		t.Errorf("newLogger(debug) error = %v", err)
	}
	if _, err := newLogger("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func testSnapshot() *jsonfile.Snapshot {
	ts := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	return &jsonfile.Snapshot{
		Identities: map[string]database.StoredIdentity{
			"emp-1": {ID: "emp-1", Name: "Alice", Template: []float32{0.1}, RegisteredAt: ts},
		},
		Active: []database.AttendanceEvent{{IdentityID: "emp-1", Timestamp: ts}},
		Archive: database.Archive{
			"2024-01": {{IdentityID: "emp-1", Timestamp: ts.AddDate(0, -1, 0)}},
		},
		Policy: &database.LocationPolicy{RadiusMeters: 100, LocationName: "Office"},
	}
}

func TestImportSnapshot(t *testing.T) {
	backend := mock.NewBackend()

	if err := importSnapshot(context.Background(), backend, testSnapshot()); err != nil {
		t.Fatalf("importSnapshot() error = %v", err)
	}

	if len(backend.Identities()) != 1 || len(backend.Active()) != 1 || backend.Archive().Total() != 1 {
		t.Errorf("unexpected documents: %d users, %d active, %d archived",
			len(backend.Identities()), len(backend.Active()), backend.Archive().Total())
	}
	if backend.PolicySaves != 1 {
		t.Errorf("expected policy to be saved once, got %d", backend.PolicySaves)
	}
}

func TestImportSnapshot_StopsOnFailure(t *testing.T) {
	backend := mock.NewBackend()
	backend.SaveActiveError = errors.New("disk full")

	err := importSnapshot(context.Background(), backend, testSnapshot())
	if err == nil {
		t.Fatal("expected error")
	}
	if backend.ArchiveSaves != 0 || backend.PolicySaves != 0 {
		t.Error("expected later documents not to be written")
	}
}

func TestImportSnapshot_WithoutPolicy(t *testing.T) {
	backend := mock.NewBackend()
	snap := testSnapshot()
	snap.Policy = nil

	if err := importSnapshot(context.Background(), backend, snap); err != nil {
		t.Fatalf("importSnapshot() error = %v", err)
	}
	if backend.PolicySaves != 0 {
		t.Errorf("expected no policy save, got %d", backend.PolicySaves)
	}
}
