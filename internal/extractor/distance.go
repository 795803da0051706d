// Package extractor turns face images into templates using an external
// face-embedding server and defines the metric used to compare templates.
package extractor

import "github.com/coder/hnsw"

// Distance is the Euclidean distance between two templates.
func Distance(a, b []float32) float64 {
	return float64(hnsw.EuclideanDistance(a, b))
}
