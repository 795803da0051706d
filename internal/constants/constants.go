// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face matching constants
const (
	// DefaultMatchThreshold is the minimum similarity for an attendance match
	DefaultMatchThreshold = 0.6

	// DefaultDuplicateThreshold is the minimum similarity at which a registration
	// is rejected as an already enrolled face
	DefaultDuplicateThreshold = 0.7

	// HighConfidenceSimilarity is the lower bound of the HIGH confidence tier
	HighConfidenceSimilarity = 0.7

	// MediumConfidenceSimilarity is the lower bound of the MEDIUM confidence tier
	MediumConfidenceSimilarity = 0.6
)

// Image quality constants
const (
	// MinImageDimension is the minimum width and height of a probe image in pixels
	MinImageDimension = 150

	// MinBrightness is the lowest acceptable mean luminance (0-255)
	MinBrightness = 50

	// MaxBrightness is the highest acceptable mean luminance (0-255)
	MaxBrightness = 220

	// MaxExtractImageSize is the longest side sent to the embedding server
	MaxExtractImageSize = 800

	// MaxImagePixels caps width*height of an accepted image before it is decoded
	MaxImagePixels = 40_000_000
)

// Geofence constants
const (
	// EarthRadiusMeters is the spherical Earth radius used by the haversine formula
	EarthRadiusMeters = 6371000.0
)

// Registration constants
const (
	// MinPasswordLength is the minimum length of a user password
	MinPasswordLength = 4
)
