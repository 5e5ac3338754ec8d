package deepface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, status int, body interface{}) *Provider {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)

	config := DefaultConfig()
	config.BaseURL = server.URL
	config.RetryCount = 0
	p := NewProvider(config)
	p.client.backoff = func(int) time.Duration { return time.Millisecond }
	return p
}

func embedding(v float64) []float64 {
	e := make([]float64, 512)
	for i := range e {
		e[i] = v
	}
	return e
}

func TestProvider_DetectFaces(t *testing.T) {
	tests := []struct {
		name        string
		response    RepresentResponse
		status      int
		wantFaces   []domain.BoundingBox
		wantErrCode string
	}{
		{
			name: "single face converts facial area to edges",
			response: RepresentResponse{Results: []RepresentResult{
				{Embedding: embedding(0.1), FacialArea: FacialArea{X: 10, Y: 20, W: 200, H: 180}, FaceConfidence: 0.99},
			}},
			status:    http.StatusOK,
			wantFaces: []domain.BoundingBox{{Left: 10, Top: 20, Right: 210, Bottom: 200}},
		},
		{
			name: "multiple faces keep detector order",
			response: RepresentResponse{Results: []RepresentResult{
				{Embedding: embedding(0.1), FacialArea: FacialArea{X: 10, Y: 10, W: 100, H: 100}, FaceConfidence: 0.98},
				{Embedding: embedding(0.2), FacialArea: FacialArea{X: 200, Y: 10, W: 90, H: 90}, FaceConfidence: 0.95},
			}},
			status: http.StatusOK,
			wantFaces: []domain.BoundingBox{
				{Left: 10, Top: 10, Right: 110, Bottom: 110},
				{Left: 200, Top: 10, Right: 290, Bottom: 100},
			},
		},
		{
			name: "low confidence detections are dropped",
			response: RepresentResponse{Results: []RepresentResult{
				{Embedding: embedding(0.1), FacialArea: FacialArea{X: 0, Y: 0, W: 640, H: 480}, FaceConfidence: 0},
			}},
			status:    http.StatusOK,
			wantFaces: []domain.BoundingBox{},
		},
		{
			name:      "no faces detected",
			response:  RepresentResponse{Results: []RepresentResult{}},
			status:    http.StatusOK,
			wantFaces: []domain.BoundingBox{},
		},
		{
			name:        "server error maps to extractor unavailable",
			status:      http.StatusInternalServerError,
			wantErrCode: domain.ErrExtractorUnavailable.Code,
		},
		{
			name:        "rejected image maps to invalid image",
			status:      http.StatusBadRequest,
			wantErrCode: domain.ErrInvalidImage.Code,
		},
		{
			name: "missing embedding is an invalid response",
			response: RepresentResponse{Results: []RepresentResult{
				{FacialArea: FacialArea{X: 1, Y: 1, W: 50, H: 50}, FaceConfidence: 0.99},
			}},
			status:      http.StatusOK,
			wantErrCode: domain.ErrExtractorUnavailable.Code,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, tt.status, tt.response)

			faces, err := p.DetectFaces(context.Background(), []byte("fake-image"))

			if tt.wantErrCode != "" {
				appErr, ok := domain.IsAppError(err)
				require.True(t, ok, "expected AppError, got %v", err)
				assert.Equal(t, tt.wantErrCode, appErr.Code)
				return
			}

			require.NoError(t, err)
			require.Len(t, faces, len(tt.wantFaces))
			for i, want := range tt.wantFaces {
				assert.Equal(t, want, faces[i].BoundingBox)
				assert.Len(t, faces[i].Embedding, 512)
			}
		})
	}
}

func TestProvider_DetectFaces_EmptyImage(t *testing.T) {
	p := NewProvider(DefaultConfig())

	_, err := p.DetectFaces(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}

func TestProvider_DetectFaces_ContextCanceled(t *testing.T) {
	p := newTestProvider(t, http.StatusOK, RepresentResponse{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.DetectFaces(ctx, []byte("fake-image"))

	assert.ErrorIs(t, err, context.Canceled)
}
