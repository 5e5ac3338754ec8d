package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// FaceExtractor is the external detector + embedding model. Implementations
// return one DetectedFace per face above their own detection confidence, or
// an empty slice when nothing was found. The pipelines make no assumption
// about concurrency safety; implementations document their own.
type FaceExtractor interface {
	DetectFaces(ctx context.Context, image []byte) ([]domain.DetectedFace, error)
}

// HealthChecker is implemented by extractors backed by a remote service.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
