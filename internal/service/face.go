package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/imaging"
	"github.com/saturnino-fabrica-de-software/presenca/internal/pipeline"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
	"github.com/saturnino-fabrica-de-software/presenca/internal/similarity"
)

type DecisionAuditRepositoryInterface interface {
	Create(ctx context.Context, audit *domain.DecisionAudit) error
}

// DecisionPublisher fans recorded decisions out to live subscribers.
// Publish must not block.
type DecisionPublisher interface {
	Publish(audit domain.DecisionAudit)
}

// FaceService decodes the uploaded frame, runs the extractor and hands the
// detected faces to the decision pipelines. Decisions are audited when a
// repository is configured.
type FaceService struct {
	extractor provider.FaceExtractor
	pipeline  *pipeline.Pipeline
	liveness  pipeline.LivenessChecker
	auditRepo DecisionAuditRepositoryInterface
	publisher DecisionPublisher
	logger    *slog.Logger
}

func NewFaceService(
	extractor provider.FaceExtractor,
	livenessChecker pipeline.LivenessChecker,
	opts pipeline.Options,
	logger *slog.Logger,
) *FaceService {
	return &FaceService{
		extractor: extractor,
		pipeline:  pipeline.New(livenessChecker, opts),
		liveness:  livenessChecker,
		logger:    logger,
	}
}

// WithAuditRepository enables the decision audit trail.
func (s *FaceService) WithAuditRepository(repo DecisionAuditRepositoryInterface) *FaceService {
	s.auditRepo = repo
	return s
}

// WithPublisher streams every decision to p after it is recorded.
func (s *FaceService) WithPublisher(p DecisionPublisher) *FaceService {
	s.publisher = p
	return s
}

func (s *FaceService) detect(ctx context.Context, imageBytes []byte) (image.Image, []domain.DetectedFace, error) {
	img, _, err := imaging.Decode(imageBytes)
	if err != nil {
		return nil, nil, err
	}

	faces, err := s.extractor.DetectFaces(ctx, imageBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("detect faces: %w", err)
	}

	return img, faces, nil
}

// Enroll extracts the reference embedding from a single-subject photo.
func (s *FaceService) Enroll(ctx context.Context, imageBytes []byte) (*domain.EnrollmentResult, error) {
	start := time.Now()

	img, faces, err := s.detect(ctx, imageBytes)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Enroll(faces, img.Bounds())

	audit := &domain.DecisionAudit{
		ID:        uuid.New(),
		Kind:      domain.DecisionKindEnroll,
		Outcome:   "enrolled",
		FaceCount: len(faces),
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		appErr, ok := domain.IsAppError(err)
		if !ok {
			return nil, fmt.Errorf("enroll: %w", err)
		}
		audit.Outcome = appErr.Code
		s.record(ctx, audit)
		return nil, err
	}
	audit.MatchedCount = 1
	s.record(ctx, audit)

	s.logger.Info("enrollment accepted",
		"decision_id", audit.ID,
		"face_ratio", result.FaceRatio,
		"latency_ms", audit.LatencyMs,
	)

	return result, nil
}

// Verify checks the frame against one enrolled embedding.
func (s *FaceService) Verify(ctx context.Context, imageBytes []byte, target domain.Embedding) (*domain.VerificationDecision, error) {
	start := time.Now()

	if err := similarity.Validate(target); err != nil {
		return nil, err
	}

	img, faces, err := s.detect(ctx, imageBytes)
	if err != nil {
		return nil, err
	}

	decision, err := s.pipeline.Verify(faces, target, img)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	latency := time.Since(start).Milliseconds()
	if decision.Liveness != nil {
		s.logSignals(decision.ID, decision.Liveness)
	}
	s.logger.Info("verification decided",
		"decision_id", decision.ID,
		"outcome", decision.Outcome,
		"similarity", decision.Similarity,
		"faces", decision.FaceCount,
		"latency_ms", latency,
	)

	audit := &domain.DecisionAudit{
		ID:        decision.ID,
		Kind:      domain.DecisionKindVerify,
		Outcome:   string(decision.Outcome),
		FaceCount: decision.FaceCount,
		LatencyMs: latency,
	}
	if decision.Outcome != domain.OutcomeNoFace {
		sim := decision.Similarity
		audit.Similarity = &sim
	}
	if decision.Liveness != nil {
		passed := decision.Liveness.IsLive
		audit.LivenessPassed = &passed
		audit.FailedSignals = signalNames(decision.Liveness.FailedSignals)
	}
	if decision.Verified {
		audit.MatchedCount = 1
	}
	s.record(ctx, audit)

	return decision, nil
}

// RecognizeBatch lists the enrolled identities present in a group photo.
func (s *FaceService) RecognizeBatch(ctx context.Context, imageBytes []byte, identities []domain.Identity) (*domain.BatchResult, error) {
	start := time.Now()

	for _, identity := range identities {
		if err := similarity.Validate(identity.Embedding); err != nil {
			return nil, fmt.Errorf("identity %q: %w", identity.ID, err)
		}
	}

	_, faces, err := s.detect(ctx, imageBytes)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.RecognizeBatch(faces, identities)
	if err != nil {
		return nil, fmt.Errorf("recognize batch: %w", err)
	}

	audit := &domain.DecisionAudit{
		ID:           uuid.New(),
		Kind:         domain.DecisionKindBatch,
		Outcome:      "recognized",
		FaceCount:    result.TotalDetected,
		MatchedCount: len(result.Present),
		LatencyMs:    time.Since(start).Milliseconds(),
	}
	if result.TotalDetected == 0 {
		audit.Outcome = string(domain.OutcomeNoFace)
	}
	s.record(ctx, audit)

	s.logger.Info("batch recognized",
		"decision_id", audit.ID,
		"identities", len(identities),
		"detected", result.TotalDetected,
		"present", len(result.Present),
		"latency_ms", audit.LatencyMs,
	)

	return result, nil
}

// CheckLiveness analyses the most prominent face of the frame, or the whole
// frame when wholeFrame is set (no extractor call is made then).
func (s *FaceService) CheckLiveness(ctx context.Context, imageBytes []byte, wholeFrame bool) (*domain.LivenessReport, error) {
	start := time.Now()

	img, _, err := imaging.Decode(imageBytes)
	if err != nil {
		return nil, err
	}

	report := &domain.LivenessReport{ID: uuid.New()}
	region := img

	if !wholeFrame {
		faces, err := s.extractor.DetectFaces(ctx, imageBytes)
		if err != nil {
			return nil, fmt.Errorf("detect faces: %w", err)
		}
		report.FaceCount = len(faces)
		if len(faces) == 0 {
			return nil, domain.ErrNoFaceDetected
		}

		box := mostProminent(faces)
		report.BoundingBox = &box

		rect, err := imaging.FaceCrop(box, img.Bounds(), s.pipeline.Options().CropMargin)
		if err != nil {
			return nil, err
		}
		region = imaging.Crop(img, rect)
	}

	verdict, err := s.liveness.Check(region)
	if err != nil {
		return nil, fmt.Errorf("check liveness: %w", err)
	}
	report.Verdict = verdict
	s.logSignals(report.ID, verdict)

	passed := verdict.IsLive
	outcome := "live"
	if !passed {
		outcome = string(domain.OutcomeSpoofRejected)
	}
	s.record(ctx, &domain.DecisionAudit{
		ID:             report.ID,
		Kind:           domain.DecisionKindLiveness,
		Outcome:        outcome,
		LivenessPassed: &passed,
		FailedSignals:  signalNames(verdict.FailedSignals),
		FaceCount:      report.FaceCount,
		LatencyMs:      time.Since(start).Milliseconds(),
	})

	return report, nil
}

// mostProminent returns the largest box; the first one wins ties.
func mostProminent(faces []domain.DetectedFace) domain.BoundingBox {
	best := faces[0].BoundingBox
	for _, f := range faces[1:] {
		if f.BoundingBox.Area() > best.Area() {
			best = f.BoundingBox
		}
	}
	return best
}

func (s *FaceService) logSignals(id uuid.UUID, v *domain.LivenessVerdict) {
	m := v.Measurements
	s.logger.Debug("liveness signals",
		"decision_id", id,
		"live", v.IsLive,
		"sharpness", m.Sharpness,
		"moire", m.MoireMagnitude,
		"saturation_std", m.SaturationStdDev,
		"value_std", m.ValueStdDev,
		"contrast", m.Contrast,
		"failed", signalNames(v.FailedSignals),
	)
}

// record never changes the decision; failures are only logged.
func (s *FaceService) record(ctx context.Context, audit *domain.DecisionAudit) {
	if s.auditRepo != nil {
		if err := s.auditRepo.Create(ctx, audit); err != nil {
			level := slog.LevelWarn
			if errors.Is(err, context.Canceled) {
				level = slog.LevelDebug
			}
			s.logger.Log(ctx, level, "decision audit failed",
				"decision_id", audit.ID,
				"kind", audit.Kind,
				"error", err,
			)
		}
	}

	if s.publisher != nil {
		if audit.CreatedAt.IsZero() {
			audit.CreatedAt = time.Now().UTC()
		}
		s.publisher.Publish(*audit)
	}
}

func signalNames(signals []domain.Signal) []string {
	names := make([]string, len(signals))
	for i, sig := range signals {
		names[i] = string(sig)
	}
	return names
}
