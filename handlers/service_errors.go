package handlers

import (
	"net/http"

	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses.
// Internal and unknown errors are logged here and answered with a generic message.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	message := services.GetErrorMessage(err)
	// Copy so sentinel Details never change
	var details map[string]interface{}
	for k, v := range services.GetErrorDetails(err) {
		if details == nil {
			details = make(map[string]interface{})
		}
		details[k] = v
	}
	if code := services.GetErrorCode(err); code != "" {
		if details == nil {
			details = make(map[string]interface{})
		}
		details["code"] = code
	}

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, message)

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, message, details)

	case services.IsUnauthorizedError(err):
		writeErr = utils.WriteError(w, http.StatusUnauthorized, message, details)

	case services.IsForbiddenError(err):
		writeErr = utils.WriteError(w, http.StatusForbidden, message, details)

	case services.IsRateLimitError(err):
		writeErr = utils.WriteTooManyRequests(w, message, 0)

	case services.IsConflictError(err):
		writeErr = utils.WriteConflict(w, message, details)

	case services.IsExternalError(err):
		logger.Warn("external provider error", zap.Error(err))
		writeErr = utils.WriteError(w, http.StatusBadGateway, message, nil)

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleDecodeError answers a request whose body could not be decoded
func HandleDecodeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if writeErr := utils.WriteBadRequest(w, err.Error(), nil); writeErr != nil {
		logger.Error("failed to write bad request response", zap.Error(writeErr))
	}
}
