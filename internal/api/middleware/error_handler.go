package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// ExtractorRetryAfter is the Retry-After hint, in seconds, sent while the
// embedding extractor is down.
const ExtractorRetryAfter = "5"

// httpCodes names the framework errors clients are expected to handle.
var httpCodes = map[int]string{
	fiber.StatusNotFound:              "NOT_FOUND",
	fiber.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	fiber.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	fiber.StatusUpgradeRequired:       "UPGRADE_REQUIRED",
}

func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code, ok := httpCodes[fiberErr.Code]
			if !ok {
				code = "HTTP_ERROR"
			}
			return writeError(c, fiberErr.Code, code, fiberErr.Message)
		}

		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			logAppError(c, logger, appErr)
			if appErr.Code == domain.ErrExtractorUnavailable.Code {
				c.Set(fiber.HeaderRetryAfter, ExtractorRetryAfter)
			}
			return writeError(c, appErr.StatusCode, appErr.Code, appErr.Message)
		}

		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
			slog.String("request_id", requestID(c)),
		)
		return writeError(c, domain.ErrInternal.StatusCode, domain.ErrInternal.Code, domain.ErrInternal.Message)
	}
}

// logAppError keeps the wrapped cause, which never reaches the client, in
// the logs. Rejected payloads go to Debug, extractor outages to Warn.
func logAppError(c *fiber.Ctx, logger *slog.Logger, appErr *domain.AppError) {
	attrs := []any{
		slog.String("code", appErr.Code),
		slog.String("path", c.Path()),
		slog.String("request_id", requestID(c)),
	}
	if appErr.Err != nil {
		attrs = append(attrs, slog.Any("error", appErr.Err))
	}

	switch {
	case appErr.Code == domain.ErrExtractorUnavailable.Code:
		logger.Warn("extractor unavailable", attrs...)
	case appErr.StatusCode >= 500:
		logger.Error("internal error", append(attrs, slog.String("message", appErr.Message))...)
	case appErr.Code == domain.ErrInvalidInput.Code,
		appErr.Code == domain.ErrInvalidImage.Code,
		appErr.Code == domain.ErrValidationFailed.Code:
		logger.Debug("request rejected", attrs...)
	}
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}
