package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// BoundingBoxData represents a face rectangle in image pixels
type BoundingBoxData struct {
	Left   float64 `json:"left" example:"112"`
	Top    float64 `json:"top" example:"80"`
	Right  float64 `json:"right" example:"298"`
	Bottom float64 `json:"bottom" example:"310"`
}

// EnrollFaceResponse represents the response for a successful enrollment
type EnrollFaceResponse struct {
	Embedding   []float64       `json:"embedding"`
	BoundingBox BoundingBoxData `json:"face_location"`
	FaceRatio   float64         `json:"face_ratio" example:"0.31"`
}

// LivenessMeasurementsData holds the raw signal values
type LivenessMeasurementsData struct {
	Sharpness        float64 `json:"sharpness" example:"142.7"`
	MoireMagnitude   float64 `json:"moire_magnitude" example:"271.3"`
	SaturationStdDev float64 `json:"saturation_std_dev" example:"31.2"`
	ValueStdDev      float64 `json:"value_std_dev" example:"44.9"`
	Contrast         float64 `json:"contrast" example:"44.9"`
}

// LivenessVerdictData is the outcome of the passive liveness gate
type LivenessVerdictData struct {
	IsLive        bool                     `json:"is_live" example:"true"`
	Confidence    float64                  `json:"confidence" example:"1"`
	FailedSignals []string                 `json:"failed_signals,omitempty"`
	Reasons       []string                 `json:"reasons,omitempty"`
	Measurements  LivenessMeasurementsData `json:"measurements"`
}

// VerifyFaceResponse represents the response for face verification
type VerifyFaceResponse struct {
	DecisionID  string              `json:"decision_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Verified    bool                `json:"verified" example:"true"`
	Outcome     string              `json:"outcome" example:"verified"`
	Reason      string              `json:"reason" example:"Success"`
	Similarity  float64             `json:"similarity" example:"0.86"`
	Liveness    LivenessVerdictData `json:"liveness"`
	BoundingBox BoundingBoxData     `json:"face_location"`
	FaceCount   int                 `json:"face_count" example:"1"`
}

// PresentStudent represents one identity found in a group image
type PresentStudent struct {
	StudentID  string  `json:"student_id" example:"2024-0193"`
	Similarity float64 `json:"similarity" example:"0.81"`
}

// RecognizeBatchResponse represents the response for batch recognition
type RecognizeBatchResponse struct {
	Present       []PresentStudent `json:"present_students"`
	TotalDetected int              `json:"total_detected" example:"24"`
	Message       string           `json:"message,omitempty" example:""`
}

// LivenessCheckResponse represents the response for liveness check
type LivenessCheckResponse struct {
	CheckID      string                   `json:"check_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	IsLive       bool                     `json:"is_live" example:"false"`
	Confidence   float64                  `json:"confidence" example:"0"`
	Reasons      []string                 `json:"reasons,omitempty"`
	Failed       []string                 `json:"failed_signals,omitempty"`
	Measurements LivenessMeasurementsData `json:"measurements"`
	BoundingBox  BoundingBoxData          `json:"face_location"`
	FaceCount    int                      `json:"face_count" example:"1"`
}

// DecisionData represents one audited decision
type DecisionData struct {
	ID             string   `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Kind           string   `json:"kind" example:"verify"`
	Outcome        string   `json:"outcome" example:"spoof_rejected"`
	Similarity     float64  `json:"similarity,omitempty" example:"0.74"`
	LivenessPassed bool     `json:"liveness_passed,omitempty" example:"false"`
	FailedSignals  []string `json:"failed_signals,omitempty"`
	FaceCount      int      `json:"face_count" example:"1"`
	MatchedCount   int      `json:"matched_count" example:"0"`
	LatencyMs      int64    `json:"latency_ms" example:"184"`
	CreatedAt      string   `json:"created_at" example:"2026-03-01T08:00:00Z"`
}

// DecisionListResponse represents a page of audited decisions
type DecisionListResponse struct {
	Decisions []DecisionData `json:"decisions"`
	Count     int            `json:"count" example:"1"`
}

// DecisionSummaryResponse represents outcome counts
type DecisionSummaryResponse struct {
	Kind     string         `json:"kind,omitempty" example:"verify"`
	Since    string         `json:"since,omitempty" example:"2026-03-01T00:00:00Z"`
	Outcomes map[string]int `json:"outcomes"`
	Total    int            `json:"total" example:"10"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

var (
	errValidation  = response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity")
	errImage       = response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity")
	errRateLimit   = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests")
	errInternal    = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	errUnavailable = response.New(ErrorResponse{Code: "EXTRACTOR_UNAVAILABLE", Message: "Face embedding extractor unavailable"}, "503", "Service Unavailable")
)

var multipart = []mime.MIME{mime.MIME("multipart/form-data")}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Presenca Attendance API",
		Version:     "v1.0.0",
		Description: "Face verification with passive liveness for attendance capture. Images are sent as multipart field \"image\" (jpeg, png or webp).",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/faces/enroll - Enroll reference
		endpoint.New(
			endpoint.POST,
			"/faces/enroll",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Extract a reference embedding"),
			endpoint.WithDescription("Requires exactly one face covering at least 15% of the image. The embedding is returned to the caller and never stored."),
			endpoint.WithConsume(multipart),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollFaceResponse{}, "201", "Reference extracted"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				errImage,
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "MULTIPLE_FACES", Message: "Multiple faces detected"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "FACE_TOO_SMALL", Message: "Face too small"}, "422", "Unprocessable Entity"),
				errRateLimit,
				errUnavailable,
			}),
		),

		// POST /v1/faces/verify - Verify (1:1) with liveness
		endpoint.New(
			endpoint.POST,
			"/faces/verify",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Verify a live face against a reference embedding"),
			endpoint.WithDescription("Form field \"embedding\" holds the reference as a JSON number array. Liveness runs on the best matching face first; identity is only compared for live faces."),
			endpoint.WithConsume(multipart),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerifyFaceResponse{}, "200", "Decision made"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				errImage,
				response.New(ErrorResponse{Code: "INVALID_INPUT", Message: "Invalid input"}, "422", "Unprocessable Entity"),
				errRateLimit,
				errInternal,
				errUnavailable,
			}),
		),

		// POST /v1/faces/recognize-batch - Group attendance
		endpoint.New(
			endpoint.POST,
			"/faces/recognize-batch",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Find enrolled identities in a group image"),
			endpoint.WithDescription("Form field \"identities\" holds a JSON array of {\"id\", \"embedding\"}. Each identity is matched independently; results keep input order."),
			endpoint.WithConsume(multipart),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognizeBatchResponse{}, "200", "Recognition completed"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				errImage,
				response.New(ErrorResponse{Code: "INVALID_INPUT", Message: "Invalid input"}, "422", "Unprocessable Entity"),
				errRateLimit,
				errUnavailable,
			}),
		),

		// POST /v1/liveness - Standalone liveness
		endpoint.New(
			endpoint.POST,
			"/liveness",
			endpoint.WithTags("Liveness"),
			endpoint.WithSummary("Check if image contains a live person"),
			endpoint.WithDescription("Runs the passive liveness gate on the most prominent face, or on the whole frame when form field \"whole_frame\" is true."),
			endpoint.WithConsume(multipart),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(LivenessCheckResponse{}, "200", "Liveness evaluated"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				errImage,
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected"}, "422", "Unprocessable Entity"),
				errRateLimit,
				errUnavailable,
			}),
		),

		// GET /v1/decisions - Audit trail
		endpoint.New(
			endpoint.GET,
			"/decisions",
			endpoint.WithTags("Decisions"),
			endpoint.WithSummary("List recent decisions"),
			endpoint.WithDescription("Available when a database is configured. Newest first."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("kind", parameter.Query, parameter.WithDescription("enroll, verify, batch or liveness")),
				parameter.StrParam("since", parameter.Query, parameter.WithDescription("RFC3339 lower bound on created_at")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum rows (default: 50, max: 500)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DecisionListResponse{}, "200", "Decisions listed"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				errRateLimit,
				errInternal,
			}),
		),

		// GET /v1/decisions/summary - Outcome counts
		endpoint.New(
			endpoint.GET,
			"/decisions/summary",
			endpoint.WithTags("Decisions"),
			endpoint.WithSummary("Count decisions by outcome"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("kind", parameter.Query, parameter.WithDescription("enroll, verify, batch or liveness")),
				parameter.StrParam("since", parameter.Query, parameter.WithDescription("RFC3339 lower bound on created_at")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DecisionSummaryResponse{}, "200", "Summary computed"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				errRateLimit,
				errInternal,
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
