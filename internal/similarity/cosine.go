package similarity

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// Compare calculates the cosine similarity between two embeddings.
// Returns a value between -1.0 (opposite) and 1.0 (identical).
func Compare(a, b domain.Embedding) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, domain.ErrInvalidInput.WithError(fmt.Errorf("empty embedding"))
	}
	if len(a) != len(b) {
		return 0, domain.ErrInvalidInput.WithError(fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b)))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, domain.ErrInvalidInput.WithError(fmt.Errorf("zero-norm embedding"))
	}
	if math.IsNaN(dotProduct) || math.IsInf(dotProduct, 0) {
		return 0, domain.ErrInvalidInput.WithError(fmt.Errorf("non-finite embedding component"))
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))

	// Rounding can push self-similarity a hair past 1.
	return math.Max(-1, math.Min(1, sim)), nil
}

// BestMatch scans candidates in order and returns the one with the highest
// similarity strictly above threshold. The second return is false when the
// sequence is empty or nothing clears the threshold. On exact ties the first
// candidate encountered wins; callers must not depend on that.
func BestMatch(target domain.Embedding, candidates []domain.Embedding, threshold float64) (domain.SimilarityResult, bool, error) {
	best := domain.SimilarityResult{Index: -1}
	found := false

	for i, c := range candidates {
		sim, err := Compare(target, c)
		if err != nil {
			return domain.SimilarityResult{}, false, fmt.Errorf("candidate %d: %w", i, err)
		}
		if sim > threshold && (!found || sim > best.Similarity) {
			best = domain.SimilarityResult{Index: i, Similarity: sim}
			found = true
		}
	}

	if !found {
		return domain.SimilarityResult{}, false, nil
	}
	return best, true, nil
}

// Normalize returns a unit-length copy of the embedding.
func Normalize(e domain.Embedding) (domain.Embedding, error) {
	norm := e.Norm()
	if norm == 0 {
		return nil, domain.ErrInvalidInput.WithError(fmt.Errorf("zero-norm embedding"))
	}

	normalized := make(domain.Embedding, len(e))
	for i, v := range e {
		normalized[i] = v / norm
	}
	return normalized, nil
}

// Validate reports whether e can take part in a comparison.
func Validate(e domain.Embedding) error {
	if len(e) == 0 {
		return domain.ErrInvalidInput.WithError(fmt.Errorf("empty embedding"))
	}
	for i, v := range e {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.ErrInvalidInput.WithError(fmt.Errorf("non-finite component at %d", i))
		}
	}
	if e.Norm() == 0 {
		return domain.ErrInvalidInput.WithError(fmt.Errorf("zero-norm embedding"))
	}
	return nil
}
