package facematch

import "math"

// Similarity converts a template distance to a similarity in [0, 1].
func Similarity(distance float64) float64 {
	return min(max(1-distance, 0), 1)
}

// Match returns the most similar candidate whose similarity is at least threshold.
// The second return value is the best similarity observed across all candidates,
// reported even when nothing cleared the threshold.
// On equal similarity the earlier candidate wins, so callers should pass candidates
// in a stable order.
func Match(probe []float32, candidates []Candidate, threshold float64, distance DistanceFunc) (*MatchResult, float64) {
	var (
		best           *Candidate
		bestDistance   float64
		bestSimilarity = -1.0
	)

	for i := range candidates {
		c := &candidates[i]
		if len(c.Template) == 0 || len(c.Template) != len(probe) {
			continue
		}
		d := distance(probe, c.Template)
		if math.IsNaN(d) || d < 0 {
			continue
		}
		s := Similarity(d)
		if s > bestSimilarity {
			best = c
			bestDistance = d
			bestSimilarity = s
		}
	}

	if best == nil {
		return nil, 0
	}
	if bestSimilarity < threshold {
		return nil, bestSimilarity
	}

	return &MatchResult{
		IdentityID: best.IdentityID,
		Name:       best.Name,
		Similarity: bestSimilarity,
		Confidence: ConfidenceFor(bestSimilarity),
		Distance:   bestDistance,
	}, bestSimilarity
}
