package mock

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

func pngBytes(t *testing.T, w, h int, seed byte) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = seed + byte(i)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProvider_DetectFaces_Deterministic(t *testing.T) {
	p := New()
	ctx := context.Background()
	img := pngBytes(t, 200, 100, 1)

	faces, err := p.DetectFaces(ctx, img)
	require.NoError(t, err)
	require.Len(t, faces, 1)

	assert.Equal(t, domain.BoundingBox{Left: 40, Top: 20, Right: 160, Bottom: 80}, faces[0].BoundingBox)
	assert.Len(t, faces[0].Embedding, embeddingDimension)
	assert.InDelta(t, 1.0, faces[0].Embedding.Norm(), 1e-9)

	again, err := p.DetectFaces(ctx, img)
	require.NoError(t, err)
	assert.Equal(t, faces[0].Embedding, again[0].Embedding, "same image, same embedding")

	other, err := p.DetectFaces(ctx, pngBytes(t, 200, 100, 2))
	require.NoError(t, err)
	assert.NotEqual(t, faces[0].Embedding, other[0].Embedding)
	assert.Equal(t, 3, p.Calls())
}

func TestProvider_DetectFaces_InvalidImage(t *testing.T) {
	_, err := New().DetectFaces(context.Background(), []byte("not an image"))

	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}

func TestProvider_Scripted(t *testing.T) {
	face := domain.DetectedFace{
		BoundingBox: domain.BoundingBox{Left: 1, Top: 2, Right: 3, Bottom: 4},
		Embedding:   domain.Embedding{1, 0},
	}
	p := New().WithFaces(face, face)

	faces, err := p.DetectFaces(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.DetectedFace{face, face}, faces)

	p.WithFaces()
	faces, err = p.DetectFaces(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestProvider_WithError(t *testing.T) {
	boom := errors.New("boom")
	p := New().WithError(boom)

	_, err := p.DetectFaces(context.Background(), pngBytes(t, 10, 10, 0))

	assert.ErrorIs(t, err, boom)
}

func TestProvider_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().WithFaces().DetectFaces(ctx, nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestProvider_ConcurrentUse(t *testing.T) {
	p := New().WithFaces(domain.DetectedFace{Embedding: domain.Embedding{1}})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.DetectFaces(context.Background(), nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, p.Calls())
}
