package database

import (
	"time"
)

// StoredIdentity represents a registered person
type StoredIdentity struct {
	ID           string    `json:"-"`
	Name         string    `json:"name"`
	Template     []float32 `json:"face_encoding"`
	Credential   string    `json:"password_hash,omitempty"` // bcrypt hash, empty for legacy identities
	RegisteredAt time.Time `json:"registered_at"`
}

// AttendanceEvent is a single immutable attendance record
type AttendanceEvent struct {
	IdentityID       string    `json:"user_id"`
	Name             string    `json:"name"`
	Similarity       float64   `json:"similarity"`
	Confidence       string    `json:"confidence"`
	Timestamp        time.Time `json:"timestamp"`
	Date             string    `json:"date"` // YYYY-MM-DD in the ledger time zone
	Time             string    `json:"time"` // HH:MM:SS in the ledger time zone
	Status           string    `json:"status"`
	LocationVerified bool      `json:"location_verified"`
	LocationMessage  string    `json:"location_message"`
	Latitude         *float64  `json:"user_latitude"`
	Longitude        *float64  `json:"user_longitude"`
}

// StatusPresent is the only status an event is written with
const StatusPresent = "present"

// Archive holds closed periods keyed by YYYY-MM
type Archive map[string][]AttendanceEvent

// LocationPolicy is the persisted geofence configuration
type LocationPolicy struct {
	Enabled      bool    `json:"enabled"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius"`
	LocationName string  `json:"location_name"`
}

// Clone returns a deep copy of the archive
func (a Archive) Clone() Archive {
	out := make(Archive, len(a))
	for period, events := range a {
		out[period] = append([]AttendanceEvent(nil), events...)
	}
	return out
}

// Total returns the number of archived events across all periods
func (a Archive) Total() int {
	n := 0
	for _, events := range a {
		n += len(events)
	}
	return n
}
