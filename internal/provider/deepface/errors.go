package deepface

import (
	"context"
	"errors"
	"fmt"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

var (
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
)

// statusError carries the HTTP status returned by the service.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("deepface returned status %d: %s", e.status, e.body)
}

func isClientError(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status >= 400 && se.status < 500
	}
	return false
}

// extractionError maps a client failure onto the extractor contract.
// Cancellation passes through untouched. A 4xx means DeepFace refused the
// image itself, so retrying elsewhere would not help.
func extractionError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isClientError(err):
		return domain.ErrInvalidImage.WithError(err)
	default:
		return domain.ErrExtractorUnavailable.WithError(fmt.Errorf("detect faces: %w", err))
	}
}
