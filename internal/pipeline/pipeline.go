// Package pipeline turns detected faces into enrollment, verification and
// batch attendance decisions. It does no I/O; the extractor runs upstream.
package pipeline

import (
	"image"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/imaging"
)

// LivenessChecker judges a face crop. *liveness.Analyzer satisfies it.
type LivenessChecker interface {
	Check(crop image.Image) (*domain.LivenessVerdict, error)
}

// Options are the operator-tunable decision parameters.
type Options struct {
	IdentityThreshold float64
	BatchThreshold    float64
	ProminenceRatio   float64
	CropMargin        float64
}

func DefaultOptions() Options {
	return Options{
		IdentityThreshold: 0.7,
		BatchThreshold:    0.7,
		ProminenceRatio:   0.15,
		CropMargin:        imaging.DefaultCropMargin,
	}
}

// Pipeline holds no per-request state and is safe for concurrent use as
// long as its LivenessChecker is.
type Pipeline struct {
	liveness LivenessChecker
	opts     Options
}

func New(liveness LivenessChecker, opts Options) *Pipeline {
	return &Pipeline{liveness: liveness, opts: opts}
}

func (p *Pipeline) Options() Options {
	return p.opts
}

func embeddings(faces []domain.DetectedFace) []domain.Embedding {
	out := make([]domain.Embedding, len(faces))
	for i, f := range faces {
		out[i] = f.Embedding
	}
	return out
}
