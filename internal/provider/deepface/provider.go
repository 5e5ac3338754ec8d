package deepface

import (
	"context"
	"encoding/base64"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
)

// Provider implements provider.FaceExtractor using the DeepFace API.
// It holds no mutable state and is safe for concurrent use.
type Provider struct {
	client        *Client
	minConfidence float64
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client:        NewClient(config),
		minConfidence: config.MinFaceConfidence,
	}
}

// DetectFaces sends the raw image to /represent and converts every result
// above the confidence floor into a DetectedFace.
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]domain.DetectedFace, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage
	}

	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return nil, extractionError(err)
	}

	faces := make([]domain.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.FaceConfidence < p.minConfidence {
			continue
		}
		if len(result.Embedding) == 0 {
			return nil, domain.ErrExtractorUnavailable.WithError(ErrInvalidResponse)
		}
		area := result.FacialArea
		faces = append(faces, domain.DetectedFace{
			BoundingBox: domain.BoundingBox{
				Left:   float64(area.X),
				Top:    float64(area.Y),
				Right:  float64(area.X + area.W),
				Bottom: float64(area.Y + area.H),
			},
			Embedding: domain.Embedding(result.Embedding),
		})
	}

	return faces, nil
}

// Ping reports whether the DeepFace service is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

var (
	_ provider.FaceExtractor = (*Provider)(nil)
	_ provider.HealthChecker = (*Provider)(nil)
)
