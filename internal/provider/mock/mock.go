package mock

import (
	"context"
	"crypto/sha256"
	"math"
	"sync"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/imaging"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
)

const (
	embeddingDimension = 512
	// faceFraction é a fração de cada eixo coberta pela face sintética
	faceFraction = 0.6
)

// Provider implementa provider.FaceExtractor para testes e desenvolvimento.
// Sem faces programadas, devolve uma face central com embedding derivado do
// hash da imagem. Safe for concurrent use.
type Provider struct {
	mu     sync.RWMutex
	faces  []domain.DetectedFace
	err    error
	calls  int
	script bool
}

// New cria um extractor no modo determinístico (hash da imagem)
func New() *Provider {
	return &Provider{}
}

// WithFaces programa as faces devolvidas em todas as chamadas seguintes
func (p *Provider) WithFaces(faces ...domain.DetectedFace) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.faces = append([]domain.DetectedFace(nil), faces...)
	p.script = true
	return p
}

// WithError makes every following DetectFaces call fail with err.
func (p *Provider) WithError(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

// Calls returns how many times DetectFaces ran.
func (p *Provider) Calls() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.calls
}

// DetectFaces simula detecção de faces
func (p *Provider) DetectFaces(ctx context.Context, img []byte) ([]domain.DetectedFace, error) {
	p.mu.Lock()
	p.calls++
	faces, failure, script := p.faces, p.err, p.script
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failure != nil {
		return nil, failure
	}
	if script {
		out := make([]domain.DetectedFace, len(faces))
		copy(out, faces)
		return out, nil
	}

	width, height, err := imaging.Dimensions(img)
	if err != nil {
		return nil, err
	}

	w, h := float64(width), float64(height)
	marginX := math.Floor(w * (1 - faceFraction) / 2)
	marginY := math.Floor(h * (1 - faceFraction) / 2)

	return []domain.DetectedFace{
		{
			BoundingBox: domain.BoundingBox{
				Left:   marginX,
				Top:    marginY,
				Right:  w - marginX,
				Bottom: h - marginY,
			},
			Embedding: generateEmbedding(img),
		},
	}, nil
}

// generateEmbedding gera embedding determinístico baseado no hash da imagem
func generateEmbedding(img []byte) domain.Embedding {
	hash := sha256.Sum256(img)
	embedding := make(domain.Embedding, embeddingDimension)
	hashLen := len(hash)

	for i := 0; i < embeddingDimension; i++ {
		idx := (i*7 + i/hashLen) % hashLen
		//nolint:gosec // idx is always < hashLen due to modulo operation
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := embedding.Norm()
	if norm == 0 {
		embedding[0] = 1
		return embedding
	}
	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

var _ provider.FaceExtractor = (*Provider)(nil)
