// Package similarity implements the pure vector math used by the
// knowledge-vector cache: cosine similarity over embedding vectors and
// a batch variant for offline analysis.
package similarity

import (
	"math"

	"github.com/cloo-solutions/veccache/internal/domain"
)

// Options controls one similarity computation.
type Options struct {
	// ValidateDimensions rejects vectors of different lengths with a
	// dimension mismatch error.
	ValidateDimensions bool
	// HandleZeroVectors returns 0 for zero-norm inputs instead of
	// relying on the guarded denominator.
	HandleZeroVectors bool
}

// DefaultOptions returns the options used by the live search path.
func DefaultOptions() Options {
	return Options{
		ValidateDimensions: true,
		HandleZeroVectors:  true,
	}
}

// Cosine computes the cosine similarity between a and b in a single
// pass over the paired elements. The result is in [-1, 1]; for
// embedding vectors it is practically [0, 1]. Zero-norm inputs score 0.
func Cosine(a, b []float32, opts Options) (float64, error) {
	if opts.ValidateDimensions && len(a) != len(b) {
		return 0, domain.NewDimensionMismatch(len(a), len(b))
	}

	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if opts.HandleZeroVectors && (normA == 0 || normB == 0) {
		return 0, nil
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, nil
	}

	return dot / denom, nil
}

// Candidate is one id/vector pair scored by Batch.
type Candidate struct {
	ID     string
	Vector []float32
}

// Score is the outcome of scoring one candidate.
type Score struct {
	ID         string
	Similarity float64
	Err        error
}

// Batch scores every candidate against the query. It is a pure map
// over Cosine; per-candidate errors are carried in the result rather
// than aborting the batch.
func Batch(query []float32, candidates []Candidate, opts Options) []Score {
	scores := make([]Score, 0, len(candidates))
	for _, c := range candidates {
		sim, err := Cosine(query, c.Vector, opts)
		scores = append(scores, Score{
			ID:         c.ID,
			Similarity: sim,
			Err:        err,
		})
	}
	return scores
}
