// Package facematch provides face matching utilities shared between the attendance
// pipeline, the roster and the CLI.
package facematch

import "github.com/kozaktomas/face-attendance/internal/constants"

// Confidence is a coarse bucket derived from similarity for display purposes
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// ConfidenceFor maps a similarity to its tier. It does not depend on the
// accept threshold used by the caller.
func ConfidenceFor(similarity float64) Confidence {
	switch {
	case similarity >= constants.HighConfidenceSimilarity:
		return ConfidenceHigh
	case similarity >= constants.MediumConfidenceSimilarity:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// DistanceFunc is the extractor's native distance between two templates
type DistanceFunc func(a, b []float32) float64

// Candidate is a registered identity considered by Match
type Candidate struct {
	IdentityID string
	Name       string
	Template   []float32
}

// MatchResult is the best candidate that cleared the threshold
type MatchResult struct {
	IdentityID string     `json:"user_id"`
	Name       string     `json:"name"`
	Similarity float64    `json:"similarity"`
	Confidence Confidence `json:"confidence"`
	Distance   float64    `json:"distance"`
}
