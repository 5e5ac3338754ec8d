package pipeline

import (
	"fmt"
	"image"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/imaging"
	"github.com/saturnino-fabrica-de-software/presenca/internal/similarity"
)

// selectionThreshold lets face selection accept the closest face no matter
// how poor the match; identity is gated after liveness.
const selectionThreshold = -1

const reasonNoMatchingFace = "Identity mismatch (No matching face found)"

// Verify runs 1:1 verification of the faces detected in img against target.
// The closest face is selected first, its crop must pass liveness, and only
// then is the identity threshold applied. Malformed embeddings or a
// degenerate crop return an InvalidInput error instead of a decision.
func (p *Pipeline) Verify(faces []domain.DetectedFace, target domain.Embedding, img image.Image) (*domain.VerificationDecision, error) {
	decision := &domain.VerificationDecision{
		ID:        uuid.New(),
		FaceCount: len(faces),
	}

	if len(faces) == 0 {
		decision.Outcome = domain.OutcomeNoFace
		decision.Reason = domain.ReasonNoFace
		return decision, nil
	}

	best, found, err := similarity.BestMatch(target, embeddings(faces), selectionThreshold)
	if err != nil {
		return nil, fmt.Errorf("select face: %w", err)
	}
	if !found {
		// Every face scored exactly -1.
		decision.Outcome = domain.OutcomeIdentityMismatch
		decision.Reason = reasonNoMatchingFace
		decision.Similarity = selectionThreshold
		return decision, nil
	}

	selected := faces[best.Index]
	decision.Similarity = best.Similarity
	box := selected.BoundingBox
	decision.BoundingBox = &box

	region, err := imaging.FaceCrop(selected.BoundingBox, img.Bounds(), p.opts.CropMargin)
	if err != nil {
		return nil, err
	}

	verdict, err := p.liveness.Check(imaging.Crop(img, region))
	if err != nil {
		return nil, fmt.Errorf("liveness: %w", err)
	}
	decision.Liveness = verdict

	switch {
	case !verdict.IsLive:
		decision.Outcome = domain.OutcomeSpoofRejected
		decision.Reason = domain.ReasonSpoof
	case best.Similarity > p.opts.IdentityThreshold:
		decision.Verified = true
		decision.Outcome = domain.OutcomeVerified
		decision.Reason = domain.ReasonSuccess
	default:
		decision.Outcome = domain.OutcomeIdentityMismatch
		decision.Reason = fmt.Sprintf("Identity mismatch (score: %.2f)", best.Similarity)
	}

	return decision, nil
}
