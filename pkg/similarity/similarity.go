// Package similarity implements the vector math behind semantic
// retrieval: cosine similarity, ranking, and threshold filtering.
package similarity

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Candidate pairs an identifier with its embedding vector.
type Candidate struct {
	ID     string
	Vector []float32
}

// Scored annotates a candidate with its similarity to the query vector.
type Scored struct {
	ID         string
	Similarity float64
}

// Cosine returns the cosine similarity of a and b, in [-1, 1]. Comparing
// vectors of different lengths is an error. A zero-magnitude vector has
// no direction, so its similarity to anything is 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Rank scores every candidate against the query and returns them in
// descending similarity order. The sort is stable, so equal scores keep
// their insertion order. Candidates whose dimensions do not match the
// query are skipped rather than failing the whole ranking.
func Rank(query []float32, candidates []Candidate) []Scored {
	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		sim, err := Cosine(query, c.Vector)
		if err != nil {
			continue
		}
		scored = append(scored, Scored{ID: c.ID, Similarity: sim})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	return scored
}

// FilterByThreshold keeps the entries scoring at least threshold,
// preserving their order.
func FilterByThreshold(ranked []Scored, threshold float64) []Scored {
	kept := make([]Scored, 0, len(ranked))
	for _, s := range ranked {
		if s.Similarity >= threshold {
			kept = append(kept, s)
		}
	}
	return kept
}
