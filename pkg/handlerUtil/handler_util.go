package handlerUtil

import (
	"FaceSignal/internal/api/face"
	"FaceSignal/pkg/log"
	"FaceSignal/pkg/response"
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// Face domain errors that carry a machine readable code.
var faceErrorCodes = []struct {
	err  error
	code string
}{
	{face.ErrInvalidFrame, "INVALID_FRAME"},
	{face.ErrCaptureUnavailable, "CAPTURE_UNAVAILABLE"},
	{face.ErrCaptureInactive, "CAPTURE_INACTIVE"},
	{face.ErrIngestUnsupported, "INGEST_UNSUPPORTED"},
	{face.ErrUnsupportedFrame, "UNSUPPORTED_FRAME"},
	{face.ErrSnapshotStorage, "SNAPSHOT_STORAGE_UNAVAILABLE"},
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}

	for _, known := range faceErrorCodes {
		if !errors.Is(err, known.err) {
			continue
		}
		var respErr *response.Error
		errors.As(known.err, &respErr)

		fields["code"] = known.code
		h.logger.WithFields(fields).Warn("Face operation failed")
		return c.Status(respErr.Code).JSON(ErrorResponse{
			Error: err.Error(),
			Code:  known.code,
		})
	}

	if errors.Is(err, face.ErrInternalServerError) {
		h.logger.WithFields(fields).Error("Internal server error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		fields["code"] = respErr.Code
		h.logger.WithFields(fields).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(fiber.Map{"error": err.Error()})
	}

	h.logger.WithFields(fields).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "An unexpected error occurred",
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Validation failed: " + err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(utils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleUnauthorized(c *fiber.Ctx, requestID string, message string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"path":       c.Path(),
		"message":    message,
	}).Warn("Unauthorized access")

	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
		"code":  "UNAUTHORIZED",
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
