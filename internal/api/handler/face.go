package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

const (
	defaultMaxImageSize = 10 * 1024 * 1024 // 10MB
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// FaceService interface for the service
type FaceService interface {
	Enroll(ctx context.Context, imageBytes []byte) (*domain.EnrollmentResult, error)
	Verify(ctx context.Context, imageBytes []byte, target domain.Embedding) (*domain.VerificationDecision, error)
	RecognizeBatch(ctx context.Context, imageBytes []byte, identities []domain.Identity) (*domain.BatchResult, error)
	CheckLiveness(ctx context.Context, imageBytes []byte, wholeFrame bool) (*domain.LivenessReport, error)
}

// FaceHandler handles face-related requests
type FaceHandler struct {
	service      FaceService
	maxImageSize int64
	logger       *slog.Logger
}

// NewFaceHandler creates a new FaceHandler instance. A non-positive
// maxImageSize falls back to 10MB.
func NewFaceHandler(service FaceService, maxImageSize int64, logger *slog.Logger) *FaceHandler {
	if maxImageSize <= 0 {
		maxImageSize = defaultMaxImageSize
	}
	return &FaceHandler{
		service:      service,
		maxImageSize: maxImageSize,
		logger:       logger,
	}
}

// EnrollResponse response for enroll endpoint
type EnrollResponse struct {
	Embedding   domain.Embedding   `json:"embedding"`
	BoundingBox domain.BoundingBox `json:"face_location"`
	FaceRatio   float64            `json:"face_ratio"`
}

// VerifyResponse response for verify endpoint
type VerifyResponse struct {
	DecisionID  string                  `json:"decision_id"`
	Verified    bool                    `json:"verified"`
	Outcome     domain.Outcome          `json:"outcome"`
	Reason      string                  `json:"reason"`
	Similarity  float64                 `json:"similarity"`
	Liveness    *domain.LivenessVerdict `json:"liveness,omitempty"`
	BoundingBox *domain.BoundingBox     `json:"face_location,omitempty"`
	FaceCount   int                     `json:"face_count"`
}

// LivenessResponse response for liveness check endpoint
type LivenessResponse struct {
	CheckID      string                      `json:"check_id"`
	IsLive       bool                        `json:"is_live"`
	Confidence   float64                     `json:"confidence"`
	Reasons      []string                    `json:"reasons,omitempty"`
	Failed       []domain.Signal             `json:"failed_signals,omitempty"`
	Measurements domain.LivenessMeasurements `json:"measurements"`
	BoundingBox  *domain.BoundingBox         `json:"face_location,omitempty"`
	FaceCount    int                         `json:"face_count"`
}

// identityRequest is one entry of the batch "identities" form field.
// student_id is accepted for clients of the attendance app.
type identityRequest struct {
	ID        string           `json:"id"`
	StudentID string           `json:"student_id"`
	Embedding domain.Embedding `json:"embedding"`
}

// Enroll POST /v1/faces/enroll - extract a reference embedding
func (h *FaceHandler) Enroll(c *fiber.Ctx) error {
	imageBytes, err := h.extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("enroll face: %w", err)
	}

	result, err := h.service.Enroll(c.UserContext(), imageBytes)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		Embedding:   result.Embedding,
		BoundingBox: result.BoundingBox,
		FaceRatio:   result.FaceRatio,
	})
}

// Verify POST /v1/faces/verify - verify face 1:1 against a reference embedding
func (h *FaceHandler) Verify(c *fiber.Ctx) error {
	target, err := parseEmbedding(c.FormValue("embedding"))
	if err != nil {
		return err
	}

	imageBytes, err := h.extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("verify face: %w", err)
	}

	decision, err := h.service.Verify(c.UserContext(), imageBytes, target)
	if err != nil {
		return err
	}

	return c.JSON(VerifyResponse{
		DecisionID:  decision.ID.String(),
		Verified:    decision.Verified,
		Outcome:     decision.Outcome,
		Reason:      decision.Reason,
		Similarity:  decision.Similarity,
		Liveness:    decision.Liveness,
		BoundingBox: decision.BoundingBox,
		FaceCount:   decision.FaceCount,
	})
}

// RecognizeBatch POST /v1/faces/recognize-batch - mark enrolled identities present in a group image
func (h *FaceHandler) RecognizeBatch(c *fiber.Ctx) error {
	identities, err := parseIdentities(c.FormValue("identities"))
	if err != nil {
		return err
	}

	imageBytes, err := h.extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("recognize batch: %w", err)
	}

	result, err := h.service.RecognizeBatch(c.UserContext(), imageBytes, identities)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// CheckLiveness POST /v1/liveness - passive anti-spoofing check
func (h *FaceHandler) CheckLiveness(c *fiber.Ctx) error {
	wholeFrame := false
	if raw := strings.TrimSpace(c.FormValue("whole_frame")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.ErrValidationFailed.WithError(fmt.Errorf("whole_frame: %w", err))
		}
		wholeFrame = v
	}

	imageBytes, err := h.extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("check liveness: %w", err)
	}

	report, err := h.service.CheckLiveness(c.UserContext(), imageBytes, wholeFrame)
	if err != nil {
		return err
	}

	return c.JSON(LivenessResponse{
		CheckID:      report.ID.String(),
		IsLive:       report.Verdict.IsLive,
		Confidence:   report.Verdict.Confidence,
		Reasons:      report.Verdict.Reasons,
		Failed:       report.Verdict.FailedSignals,
		Measurements: report.Verdict.Measurements,
		BoundingBox:  report.BoundingBox,
		FaceCount:    report.FaceCount,
	})
}

// parseEmbedding decodes a JSON number array form field
func parseEmbedding(raw string) (domain.Embedding, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrValidationFailed.WithError(errors.New("embedding is required"))
	}

	var e domain.Embedding
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("embedding: %w", err))
	}
	return e, nil
}

// parseIdentities decodes the JSON identity list form field
func parseIdentities(raw string) ([]domain.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrValidationFailed.WithError(errors.New("identities is required"))
	}

	var reqs []identityRequest
	if err := json.Unmarshal([]byte(raw), &reqs); err != nil {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("identities: %w", err))
	}

	identities := make([]domain.Identity, 0, len(reqs))
	for i, r := range reqs {
		id := r.ID
		if id == "" {
			id = r.StudentID
		}
		if strings.TrimSpace(id) == "" {
			return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("identities[%d]: id is required", i))
		}
		identities = append(identities, domain.Identity{ID: id, Embedding: r.Embedding})
	}
	return identities, nil
}

// extractAndValidateImage extracts and validates the image from the form
func (h *FaceHandler) extractAndValidateImage(c *fiber.Ctx) ([]byte, error) {
	// 1. Extract file
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	// 2. Validate size
	if file.Size > h.maxImageSize || file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("image size %d out of range", file.Size))
	}

	// 3. Validate Content-Type
	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("unsupported content type %q", contentType))
	}

	// 4. Read image bytes
	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}
