package geofence

import (
	"context"
	"errors"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func TestNewStore_UsesDefaultWhenAbsent(t *testing.T) {
	store, err := NewStore(context.Background(), mock.NewBackend(), headOffice)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if store.Get() != headOffice {
		t.Errorf("expected default policy, got %+v", store.Get())
	}
}

func TestNewStore_UsesPersistedPolicy(t *testing.T) {
	backend := mock.NewBackend()
	backend.SetPolicy(database.LocationPolicy{Enabled: true, Latitude: 1, Longitude: 2, RadiusMeters: 30, LocationName: "Gudang"})

	store, err := NewStore(context.Background(), backend, headOffice)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if got := store.Get(); got.LocationName != "Gudang" || got.RadiusMeters != 30 {
		t.Errorf("expected persisted policy, got %+v", got)
	}
}

func TestNewStore_LoadError(t *testing.T) {
	backend := mock.NewBackend()
	backend.LoadPolicyError = errors.New("unreadable")

	if _, err := NewStore(context.Background(), backend, headOffice); err == nil {
		t.Error("expected load error")
	}
}

func TestStore_Update(t *testing.T) {
	backend := mock.NewBackend()
	store, err := NewStore(context.Background(), backend, headOffice)
	if err != nil {
		t.Fatal(err)
	}

	next := Policy{Enabled: true, Latitude: -7.25, Longitude: 112.75, RadiusMeters: 250, LocationName: "  Cabang Surabaya "}
	got, err := store.Update(context.Background(), next)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.LocationName != "Cabang Surabaya" {
		t.Errorf("expected trimmed label, got %q", got.LocationName)
	}
	if store.Get() != got {
		t.Errorf("expected in-memory policy %+v, got %+v", got, store.Get())
	}
	if backend.PolicySaves != 1 {
		t.Errorf("expected 1 save, got %d", backend.PolicySaves)
	}
}

func TestStore_UpdateRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		message string
	}{
		{"latitude", Policy{Latitude: 91, LocationName: "x"}, "latitude must be between -90 and 90"},
		{"longitude", Policy{Longitude: -181, LocationName: "x"}, "longitude must be between -180 and 180"},
		{"radius", Policy{RadiusMeters: -1, LocationName: "x"}, "radius must not be negative"},
		{"label", Policy{LocationName: "   "}, "location_name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := mock.NewBackend()
			store, err := NewStore(context.Background(), backend, headOffice)
			if err != nil {
				t.Fatal(err)
			}

			_, err = store.Update(context.Background(), tt.policy)
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if apperr.MessageOf(err) != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, apperr.MessageOf(err))
			}
			if backend.PolicySaves != 0 {
				t.Error("invalid policy must not be persisted")
			}
			if store.Get() != headOffice {
				t.Error("invalid policy must not replace the current one")
			}
		})
	}
}

func TestStore_UpdateStorageFailureKeepsPolicy(t *testing.T) {
	backend := mock.NewBackend()
	store, err := NewStore(context.Background(), backend, headOffice)
	if err != nil {
		t.Fatal(err)
	}
	backend.SavePolicyError = errors.New("read-only filesystem")

	_, err = store.Update(context.Background(), Policy{RadiusMeters: 10, LocationName: "HQ"})
	if !apperr.IsKind(err, apperr.KindStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if store.Get() != headOffice {
		t.Error("failed update must not change the current policy")
	}
}

func TestStore_UpdateRetriesOnce(t *testing.T) {
	backend := mock.NewBackend()
	store, err := NewStore(context.Background(), backend, headOffice)
	if err != nil {
		t.Fatal(err)
	}
	backend.FailSaves = 1
	backend.SaveFailure = errors.New("transient")

	if _, err := store.Update(context.Background(), Policy{RadiusMeters: 10, LocationName: "HQ"}); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if store.Get().LocationName != "HQ" {
		t.Error("expected policy to be updated after retry")
	}
}
