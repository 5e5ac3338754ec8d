package liveness

import (
	"fmt"
	"image"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// Thresholds are the per-signal rejection limits.
type Thresholds struct {
	MinSharpness       float64 `json:"min_sharpness"`
	MaxMoireMagnitude  float64 `json:"max_moire_magnitude"`
	MinColorDispersion float64 `json:"min_color_dispersion"`
	MinContrast        float64 `json:"min_contrast"`
}

// DefaultThresholds returns the empirically chosen limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSharpness:       60,
		MaxMoireMagnitude:  285,
		MinColorDispersion: 18,
		MinContrast:        28,
	}
}

// Analyzer is a stateless multi-signal liveness gate. It is safe for
// concurrent use.
type Analyzer struct {
	thresholds Thresholds
}

func NewAnalyzer(thresholds Thresholds) *Analyzer {
	return &Analyzer{thresholds: thresholds}
}

func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// Check measures every signal on the crop and applies the gate.
func (a *Analyzer) Check(crop image.Image) (*domain.LivenessVerdict, error) {
	m, err := Measure(crop)
	if err != nil {
		return nil, err
	}
	return a.Evaluate(m), nil
}

// Measure extracts the raw signal values from a face crop.
func Measure(crop image.Image) (domain.LivenessMeasurements, error) {
	if crop == nil {
		return domain.LivenessMeasurements{}, domain.ErrInvalidInput.WithError(fmt.Errorf("nil face crop"))
	}
	b := crop.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return domain.LivenessMeasurements{}, domain.ErrInvalidInput.WithError(fmt.Errorf("degenerate face crop %dx%d", b.Dx(), b.Dy()))
	}

	p := newPlanes(crop)
	satStd, valStd := colorDispersion(p)

	return domain.LivenessMeasurements{
		Sharpness:        laplacianVariance(p),
		MoireMagnitude:   maxLogMagnitude(p),
		SaturationStdDev: satStd,
		ValueStdDev:      valStd,
		Contrast:         globalContrast(p),
	}, nil
}

// Evaluate applies the AND gate: any failed signal vetoes liveness, and every
// failure is reported in domain.Signals order.
func (a *Analyzer) Evaluate(m domain.LivenessMeasurements) *domain.LivenessVerdict {
	var failed []domain.Signal
	for _, s := range domain.Signals {
		if !a.passes(s, m) {
			failed = append(failed, s)
		}
	}

	verdict := &domain.LivenessVerdict{
		IsLive:       len(failed) == 0,
		Measurements: m,
	}
	if verdict.IsLive {
		verdict.Confidence = 1.0
		return verdict
	}

	verdict.FailedSignals = failed
	verdict.Reasons = make([]string, len(failed))
	for i, s := range failed {
		verdict.Reasons[i] = s.Reason()
	}
	return verdict
}

func (a *Analyzer) passes(s domain.Signal, m domain.LivenessMeasurements) bool {
	switch s {
	case domain.SignalSharpness:
		return m.Sharpness >= a.thresholds.MinSharpness
	case domain.SignalMoire:
		return m.MoireMagnitude <= a.thresholds.MaxMoireMagnitude
	case domain.SignalColorDispersion:
		return m.SaturationStdDev >= a.thresholds.MinColorDispersion && m.ValueStdDev >= a.thresholds.MinColorDispersion
	case domain.SignalContrast:
		return m.Contrast >= a.thresholds.MinContrast
	default:
		return true
	}
}
