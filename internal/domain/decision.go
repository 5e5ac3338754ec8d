package domain

import (
	"time"

	"github.com/google/uuid"
)

// SimilarityResult identifies a candidate by its position in the scanned sequence.
type SimilarityResult struct {
	Index      int     `json:"index"`
	Similarity float64 `json:"similarity"`
}

type Outcome string

const (
	OutcomeVerified         Outcome = "verified"
	OutcomeIdentityMismatch Outcome = "identity_mismatch"
	OutcomeSpoofRejected    Outcome = "spoof_rejected"
	OutcomeNoFace           Outcome = "no_face"
)

// Verification reasons surfaced to callers.
const (
	ReasonNoFace  = "No face detected"
	ReasonSpoof   = "Spoof detected (Liveness check failed)"
	ReasonSuccess = "Success"
)

// VerificationDecision is the result of a 1:1 verification.
// Liveness is nil only when no face was detected.
type VerificationDecision struct {
	ID          uuid.UUID        `json:"id"`
	Verified    bool             `json:"verified"`
	Outcome     Outcome          `json:"outcome"`
	Reason      string           `json:"reason"`
	Similarity  float64          `json:"similarity"`
	Liveness    *LivenessVerdict `json:"liveness,omitempty"`
	BoundingBox *BoundingBox     `json:"face_location,omitempty"`
	FaceCount   int              `json:"face_count"`
}

// LivenessPassed is false when liveness was never evaluated.
func (d *VerificationDecision) LivenessPassed() bool {
	return d.Liveness != nil && d.Liveness.IsLive
}

// BatchMatch is an enrolled identity found present in a group image.
type BatchMatch struct {
	IdentityID string  `json:"student_id"`
	Similarity float64 `json:"similarity"`
}

// BatchResult lists present identities in input order.
type BatchResult struct {
	Present       []BatchMatch `json:"present_students"`
	TotalDetected int          `json:"total_detected"`
	Message       string       `json:"message,omitempty"`
}

type DecisionKind string

const (
	DecisionKindEnroll   DecisionKind = "enroll"
	DecisionKindVerify   DecisionKind = "verify"
	DecisionKindBatch    DecisionKind = "batch"
	DecisionKindLiveness DecisionKind = "liveness"
)

// DecisionAudit is the persisted trace of one decision. It never holds embeddings.
type DecisionAudit struct {
	ID             uuid.UUID    `json:"id"`
	Kind           DecisionKind `json:"kind"`
	Outcome        string       `json:"outcome"`
	Similarity     *float64     `json:"similarity,omitempty"`
	LivenessPassed *bool        `json:"liveness_passed,omitempty"`
	FailedSignals  []string     `json:"failed_signals,omitempty"`
	FaceCount      int          `json:"face_count"`
	MatchedCount   int          `json:"matched_count"`
	LatencyMs      int64        `json:"latency_ms"`
	CreatedAt      time.Time    `json:"created_at"`
}
