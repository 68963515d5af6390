package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"recordapi/internal/attachment"
	"recordapi/internal/http/middleware"
	"recordapi/internal/imaging"
	"recordapi/internal/logger"
	"recordapi/internal/record"
	"recordapi/internal/repository"
	"recordapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
// code is machine-readable (INVALID_ID, NOT_FOUND...), message is safe for clients.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps service and domain errors to HTTP responses.
func writeServiceError(c *fiber.Ctx, err error) error {
	var invalid attachment.ValidationErrors
	switch {
	case errors.As(err, &invalid):
		return writeError(c, fiber.StatusUnprocessableEntity, "INVALID_ATTACHMENT", invalid.Error())
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "record not found")
	case errors.Is(err, service.ErrAttachmentNotFound), errors.Is(err, record.ErrPhotoNotFound):
		return writeError(c, fiber.StatusNotFound, "ATTACHMENT_NOT_FOUND", "attachment not found")
	case errors.Is(err, record.ErrRotationUnchanged):
		return writeError(c, fiber.StatusConflict, "ROTATION_UNCHANGED", "rotation produced the current photo, retry later")
	case errors.Is(err, record.ErrNoPrimaryPhoto):
		return writeError(c, fiber.StatusNotFound, "NO_PHOTO", "record has no photo")
	case errors.Is(err, service.ErrVariantSize):
		return writeError(c, fiber.StatusBadRequest, "INVALID_SIZE", err.Error())
	case errors.Is(err, imaging.ErrUnsupportedAngle), errors.Is(err, imaging.ErrInvalidSize):
		return writeError(c, fiber.StatusBadRequest, "INVALID_TRANSFORM", err.Error())
	case errors.Is(err, repository.ErrConflict):
		return writeError(c, fiber.StatusConflict, "CONFLICT", "record was modified concurrently, reload and retry")
	default:
		logger.Component("http").WithField("request_id", requestIDFromCtx(c)).WithError(err).Error("request failed")
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// writeValidationError reports request body or query validation failures.
func writeValidationError(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "bad request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", strings.Join(msgs, "; "))
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
