package domain

import "github.com/google/uuid"

// Signal names one independent liveness extractor.
type Signal string

const (
	SignalSharpness       Signal = "sharpness"
	SignalMoire           Signal = "moire"
	SignalColorDispersion Signal = "color_dispersion"
	SignalContrast        Signal = "contrast"
)

// Signals lists every signal in reporting order.
var Signals = []Signal{SignalSharpness, SignalMoire, SignalColorDispersion, SignalContrast}

// Reason is the user-facing explanation for a failed signal.
func (s Signal) Reason() string {
	switch s {
	case SignalSharpness:
		return "Low texture depth (Blurry)"
	case SignalMoire:
		return "Moiré frequency detected (Digital Screen)"
	case SignalColorDispersion:
		return "Flat color profile (Recapture)"
	case SignalContrast:
		return "Low dynamic range (Flat Photo)"
	default:
		return string(s)
	}
}

// LivenessMeasurements are the raw values each signal was judged on.
type LivenessMeasurements struct {
	Sharpness        float64 `json:"sharpness"`
	MoireMagnitude   float64 `json:"moire_magnitude"`
	SaturationStdDev float64 `json:"saturation_std_dev"`
	ValueStdDev      float64 `json:"value_std_dev"`
	Contrast         float64 `json:"contrast"`
}

// LivenessVerdict is live only when every signal passed.
type LivenessVerdict struct {
	IsLive        bool                 `json:"is_live"`
	Confidence    float64              `json:"confidence"`
	FailedSignals []Signal             `json:"failed_signals,omitempty"`
	Reasons       []string             `json:"reasons,omitempty"`
	Measurements  LivenessMeasurements `json:"measurements"`
}

// LivenessReport is the answer of a standalone liveness check. BoundingBox
// is nil when the whole frame was analysed.
type LivenessReport struct {
	ID          uuid.UUID        `json:"id"`
	Verdict     *LivenessVerdict `json:"liveness"`
	BoundingBox *BoundingBox     `json:"face_location,omitempty"`
	FaceCount   int              `json:"face_count"`
}
