package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port          int    `envconfig:"PORT" default:"3000"`
	Environment   string `envconfig:"ENV" default:"development"`
	MaxImageBytes int    `envconfig:"MAX_IMAGE_BYTES" default:"10485760"`

	// Database (audit trail is disabled when empty)
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Provider
	ProviderType       string        `envconfig:"PROVIDER_TYPE" default:"deepface"`
	DeepFaceURL        string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel      string        `envconfig:"DEEPFACE_MODEL" default:"ArcFace"`
	DeepFaceDetector   string        `envconfig:"DEEPFACE_DETECTOR" default:"retinaface"`
	DeepFaceTimeout    time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`
	DeepFaceRetryCount int           `envconfig:"DEEPFACE_RETRY_COUNT" default:"3"`

	// Decision thresholds
	IdentityThreshold   float64 `envconfig:"IDENTITY_THRESHOLD" default:"0.7"`
	BatchThreshold      float64 `envconfig:"BATCH_THRESHOLD" default:"0.7"`
	FaceProminenceRatio float64 `envconfig:"FACE_PROMINENCE_RATIO" default:"0.15"`
	CropMargin          float64 `envconfig:"CROP_MARGIN" default:"0.10"`

	// Liveness
	SharpnessThreshold  float64 `envconfig:"SHARPNESS_THRESHOLD" default:"60"`
	MoireThreshold      float64 `envconfig:"MOIRE_THRESHOLD" default:"285"`
	DispersionThreshold float64 `envconfig:"DISPERSION_THRESHOLD" default:"18"`
	ContrastThreshold   float64 `envconfig:"CONTRAST_THRESHOLD" default:"28"`

	// Rate limiting
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"120"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values the pipelines cannot operate with.
func (c *Config) Validate() error {
	switch c.ProviderType {
	case "deepface", "mock":
	default:
		return fmt.Errorf("PROVIDER_TYPE %q not supported (deepface, mock)", c.ProviderType)
	}

	for name, v := range map[string]float64{
		"IDENTITY_THRESHOLD": c.IdentityThreshold,
		"BATCH_THRESHOLD":    c.BatchThreshold,
	} {
		if v < -1 || v > 1 {
			return fmt.Errorf("%s must be within [-1, 1], got %v", name, v)
		}
	}

	if c.FaceProminenceRatio <= 0 || c.FaceProminenceRatio > 1 {
		return fmt.Errorf("FACE_PROMINENCE_RATIO must be within (0, 1], got %v", c.FaceProminenceRatio)
	}
	if c.CropMargin < 0 || c.CropMargin > 1 {
		return fmt.Errorf("CROP_MARGIN must be within [0, 1], got %v", c.CropMargin)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be positive")
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AuditEnabled reports whether decisions are persisted.
func (c *Config) AuditEnabled() bool {
	return c.DatabaseURL != ""
}
