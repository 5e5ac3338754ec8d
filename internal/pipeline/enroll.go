package pipeline

import (
	"fmt"
	"image"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// Enroll accepts the single face in an image of the given bounds as the
// reference embedding. It fails with NoFaceDetected, MultipleFaces or
// FaceTooSmall when the frame is not a clean single-subject capture.
func (p *Pipeline) Enroll(faces []domain.DetectedFace, bounds image.Rectangle) (*domain.EnrollmentResult, error) {
	switch len(faces) {
	case 0:
		return nil, domain.ErrNoFaceDetected
	case 1:
	default:
		return nil, domain.ErrMultipleFaces.WithError(fmt.Errorf("%d faces detected", len(faces)))
	}

	imageArea := float64(bounds.Dx()) * float64(bounds.Dy())
	if imageArea <= 0 {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("empty image bounds %v", bounds))
	}

	face := faces[0]
	if face.Embedding.Norm() == 0 {
		return nil, domain.ErrInvalidInput.WithError(fmt.Errorf("zero-norm embedding"))
	}

	ratio := face.BoundingBox.Area() / imageArea
	if ratio < p.opts.ProminenceRatio {
		return nil, domain.ErrFaceTooSmall.WithError(
			fmt.Errorf("face covers %.1f%% of the image, need %.1f%%", ratio*100, p.opts.ProminenceRatio*100))
	}

	return &domain.EnrollmentResult{
		Embedding:   face.Embedding,
		BoundingBox: face.BoundingBox,
		FaceRatio:   ratio,
	}, nil
}
