package pipeline

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/liveness"
)

type mockLiveness struct {
	mock.Mock
}

func (m *mockLiveness) Check(crop image.Image) (*domain.LivenessVerdict, error) {
	args := m.Called(crop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LivenessVerdict), args.Error(1)
}

func liveVerdict() *domain.LivenessVerdict {
	return &domain.LivenessVerdict{IsLive: true, Confidence: 1, FailedSignals: []domain.Signal{}, Reasons: []string{}}
}

func spoofVerdict(signals ...domain.Signal) *domain.LivenessVerdict {
	v := &domain.LivenessVerdict{IsLive: false, FailedSignals: signals}
	for _, s := range signals {
		v.Reasons = append(v.Reasons, s.Reason())
	}
	return v
}

func face(left, top, right, bottom float64, emb ...float64) domain.DetectedFace {
	return domain.DetectedFace{
		BoundingBox: domain.BoundingBox{Left: left, Top: top, Right: right, Bottom: bottom},
		Embedding:   domain.Embedding(emb),
	}
}

func blankImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestVerify_NoFaces(t *testing.T) {
	checker := new(mockLiveness)
	p := New(checker, DefaultOptions())

	decision, err := p.Verify(nil, domain.Embedding{1, 0}, blankImage(10, 10))

	require.NoError(t, err)
	assert.False(t, decision.Verified)
	assert.Equal(t, domain.OutcomeNoFace, decision.Outcome)
	assert.Equal(t, "No face detected", decision.Reason)
	assert.Nil(t, decision.Liveness)
	assert.Zero(t, decision.FaceCount)
	checker.AssertNotCalled(t, "Check", mock.Anything)
}

func TestVerify_SelectsClosestFaceAndCropsWithMargin(t *testing.T) {
	checker := new(mockLiveness)
	wantCrop := image.Rect(96, 46, 144, 94)
	checker.On("Check", mock.MatchedBy(func(img image.Image) bool {
		return img.Bounds() == wantCrop
	})).Return(liveVerdict(), nil).Once()

	p := New(checker, DefaultOptions())
	faces := []domain.DetectedFace{
		face(10, 10, 50, 50, 0, 1),
		face(100, 50, 140, 90, 1, 0),
	}

	decision, err := p.Verify(faces, domain.Embedding{1, 0.1}, blankImage(320, 240))

	require.NoError(t, err)
	assert.True(t, decision.Verified)
	assert.Equal(t, domain.OutcomeVerified, decision.Outcome)
	assert.Equal(t, "Success", decision.Reason)
	assert.InDelta(t, 0.995, decision.Similarity, 0.001)
	assert.Equal(t, &faces[1].BoundingBox, decision.BoundingBox)
	assert.Equal(t, 2, decision.FaceCount)
	assert.NotEqual(t, uuid.Nil, decision.ID)
	checker.AssertExpectations(t)
}

func TestVerify_LivenessFailureShortCircuits(t *testing.T) {
	checker := new(mockLiveness)
	checker.On("Check", mock.Anything).Return(spoofVerdict(domain.SignalContrast), nil)
	p := New(checker, DefaultOptions())

	decision, err := p.Verify([]domain.DetectedFace{face(0, 0, 20, 20, 1, 0)}, domain.Embedding{1, 0}, blankImage(40, 40))

	require.NoError(t, err)
	assert.False(t, decision.Verified)
	assert.Equal(t, domain.OutcomeSpoofRejected, decision.Outcome)
	assert.Equal(t, "Spoof detected (Liveness check failed)", decision.Reason)
	assert.InDelta(t, 1.0, decision.Similarity, 1e-9)
	assert.False(t, decision.LivenessPassed())
	assert.Equal(t, []domain.Signal{domain.SignalContrast}, decision.Liveness.FailedSignals)
}

func TestVerify_IdentityMismatchReportsScore(t *testing.T) {
	checker := new(mockLiveness)
	checker.On("Check", mock.Anything).Return(liveVerdict(), nil)
	p := New(checker, DefaultOptions())

	decision, err := p.Verify([]domain.DetectedFace{face(0, 0, 20, 20, 3, 4)}, domain.Embedding{1, 0}, blankImage(40, 40))

	require.NoError(t, err)
	assert.False(t, decision.Verified)
	assert.Equal(t, domain.OutcomeIdentityMismatch, decision.Outcome)
	assert.Equal(t, "Identity mismatch (score: 0.60)", decision.Reason)
	assert.True(t, decision.LivenessPassed())
}

func TestVerify_ThresholdIsStrict(t *testing.T) {
	checker := new(mockLiveness)
	checker.On("Check", mock.Anything).Return(liveVerdict(), nil)
	opts := DefaultOptions()
	opts.IdentityThreshold = 0.6
	p := New(checker, opts)

	decision, err := p.Verify([]domain.DetectedFace{face(0, 0, 20, 20, 3, 4)}, domain.Embedding{1, 0}, blankImage(40, 40))

	require.NoError(t, err)
	assert.False(t, decision.Verified, "similarity equal to the threshold does not verify")
}

func TestVerify_OppositeFacesNeverSelected(t *testing.T) {
	checker := new(mockLiveness)
	p := New(checker, DefaultOptions())

	decision, err := p.Verify([]domain.DetectedFace{face(0, 0, 20, 20, -1, 0)}, domain.Embedding{1, 0}, blankImage(40, 40))

	require.NoError(t, err)
	assert.False(t, decision.Verified)
	assert.Equal(t, domain.OutcomeIdentityMismatch, decision.Outcome)
	assert.Equal(t, "Identity mismatch (No matching face found)", decision.Reason)
	assert.Nil(t, decision.Liveness)
	checker.AssertNotCalled(t, "Check", mock.Anything)
}

func TestVerify_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		faces  []domain.DetectedFace
		target domain.Embedding
	}{
		{"dimension mismatch", []domain.DetectedFace{face(0, 0, 10, 10, 1, 0, 0)}, domain.Embedding{1, 0}},
		{"zero norm target", []domain.DetectedFace{face(0, 0, 10, 10, 1, 0)}, domain.Embedding{0, 0}},
		{"box outside image", []domain.DetectedFace{face(500, 500, 600, 600, 1, 0)}, domain.Embedding{1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := new(mockLiveness)
			checker.On("Check", mock.Anything).Return(liveVerdict(), nil)
			p := New(checker, DefaultOptions())

			_, err := p.Verify(tt.faces, tt.target, blankImage(40, 40))

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestVerify_LivenessErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	checker := new(mockLiveness)
	checker.On("Check", mock.Anything).Return(nil, boom)
	p := New(checker, DefaultOptions())

	_, err := p.Verify([]domain.DetectedFace{face(0, 0, 20, 20, 1, 0)}, domain.Embedding{1, 0}, blankImage(40, 40))

	assert.ErrorIs(t, err, boom)
}

// A perfect identity match on a flat, low-contrast face region must still be
// rejected as a spoof by the real analyzer.
func TestVerify_FlatFaceIsSpoofEvenWhenIdentityMatches(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, 160, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	for y := 20; y < 100; y++ {
		for x := 40; x < 120; x++ {
			img.Set(x, y, color.RGBA{R: 190, G: 160, B: 140, A: 255})
		}
	}

	p := New(liveness.NewAnalyzer(liveness.DefaultThresholds()), DefaultOptions())
	target := domain.Embedding{0.2, 0.4, 0.6}

	decision, err := p.Verify([]domain.DetectedFace{face(48, 28, 112, 92, 0.2, 0.4, 0.6)}, target, img)

	require.NoError(t, err)
	assert.InDelta(t, 1.0, decision.Similarity, 1e-9)
	assert.False(t, decision.Verified)
	assert.Equal(t, domain.OutcomeSpoofRejected, decision.Outcome)
	assert.Contains(t, decision.Liveness.FailedSignals, domain.SignalContrast)
	assert.Contains(t, decision.Liveness.FailedSignals, domain.SignalColorDispersion)
}
