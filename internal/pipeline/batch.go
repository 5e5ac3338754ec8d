package pipeline

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/similarity"
)

const messageNoFaces = "No faces detected in image"

// RecognizeBatch reports which identities appear among the detected faces.
// Each identity keeps its own best similarity above the batch threshold;
// two identities may claim the same face. No liveness gate applies.
// Present entries follow the identities' input order.
func (p *Pipeline) RecognizeBatch(faces []domain.DetectedFace, identities []domain.Identity) (*domain.BatchResult, error) {
	result := &domain.BatchResult{
		Present:       []domain.BatchMatch{},
		TotalDetected: len(faces),
	}

	if len(faces) == 0 {
		result.Message = messageNoFaces
		return result, nil
	}

	candidates := embeddings(faces)
	for _, identity := range identities {
		best, found, err := similarity.BestMatch(identity.Embedding, candidates, p.opts.BatchThreshold)
		if err != nil {
			return nil, fmt.Errorf("identity %q: %w", identity.ID, err)
		}
		if found {
			result.Present = append(result.Present, domain.BatchMatch{
				IdentityID: identity.ID,
				Similarity: best.Similarity,
			})
		}
	}

	return result, nil
}
