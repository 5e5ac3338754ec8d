package face

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/presenca/internal/config"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider/mock"
)

// ProviderType defines supported face extractor backends
type ProviderType string

const (
	// ProviderTypeDeepFace talks to a DeepFace /represent service
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeMock derives embeddings from the image hash (dev/test only)
	ProviderTypeMock ProviderType = "mock"
)

// NewExtractor creates a FaceExtractor based on configuration.
//
// Environment variables:
//   - PROVIDER_TYPE: "deepface" or "mock" (default: "deepface")
//   - DEEPFACE_URL, DEEPFACE_MODEL, DEEPFACE_DETECTOR
//   - DEEPFACE_TIMEOUT, DEEPFACE_RETRY_COUNT
func NewExtractor(cfg *config.Config) (provider.FaceExtractor, error) {
	switch ProviderType(cfg.ProviderType) {
	case ProviderTypeDeepFace, "":
		return createDeepFaceProvider(cfg), nil

	case ProviderTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s)",
			cfg.ProviderType, ProviderTypeDeepFace, ProviderTypeMock)
	}
}

func createDeepFaceProvider(cfg *config.Config) *deepface.Provider {
	dfc := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		dfc.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		dfc.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		dfc.Detector = cfg.DeepFaceDetector
	}
	if cfg.DeepFaceTimeout > 0 {
		dfc.Timeout = cfg.DeepFaceTimeout
	}
	if cfg.DeepFaceRetryCount >= 0 {
		dfc.RetryCount = cfg.DeepFaceRetryCount
	}

	return deepface.NewProvider(dfc)
}
