// Package constants provides shared constants used across the codebase.
package constants

// Handler constants
const (
	// DefaultRecordsLimit caps the current-period attendance listing
	DefaultRecordsLimit = 100

	// PeriodLayout is the time layout of a period key (YYYY-MM)
	PeriodLayout = "2006-01"
)

// File upload constants
const (
	// MaxUploadSize is the maximum file upload size in bytes (20MB)
	MaxUploadSize = 20 << 20
)
