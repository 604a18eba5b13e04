package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/services"
	"github.com/abirzishan32/Tukhor-AI/utils"
)

// HandleServiceError maps domain errors to HTTP responses. Handlers stay
// thin: they parse, call a service, and hand any error here.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	switch {
	case services.IsNotFoundError(err):
		if werr := utils.WriteNotFound(w, err.Error()); werr != nil {
			logger.Error("failed to write not found response", zap.Error(werr))
		}

	case services.IsValidationError(err):
		if werr := utils.WriteBadRequest(w, err.Error(), details); werr != nil {
			logger.Error("failed to write bad request response", zap.Error(werr))
		}

	case services.IsUnauthorizedError(err):
		if werr := utils.WriteUnauthorized(w, err.Error()); werr != nil {
			logger.Error("failed to write unauthorized response", zap.Error(werr))
		}

	case services.IsForbiddenError(err):
		if werr := utils.WriteForbidden(w, err.Error()); werr != nil {
			logger.Error("failed to write forbidden response", zap.Error(werr))
		}

	case services.IsConflictError(err):
		if werr := utils.WriteConflict(w, err.Error(), details); werr != nil {
			logger.Error("failed to write conflict response", zap.Error(werr))
		}

	case services.IsEmbeddingError(err), services.IsGenerationError(err):
		// Upstream model failures surface as 502; the caller can retry
		logger.Error("upstream model error", zap.Error(err))
		if werr := utils.WriteBadGateway(w, ""); werr != nil {
			logger.Error("failed to write bad gateway response", zap.Error(werr))
		}

	case services.IsIndexError(err):
		logger.Error("vector index error", zap.Error(err))
		if werr := utils.WriteServiceUnavailable(w, "Search index unavailable"); werr != nil {
			logger.Error("failed to write service unavailable response", zap.Error(werr))
		}

	case services.IsInternalError(err):
		// Log internal errors but return a generic message
		logger.Error("internal server error", zap.Error(err))
		if werr := utils.WriteInternalServerError(w, "An internal error occurred"); werr != nil {
			logger.Error("failed to write internal error response", zap.Error(werr))
		}

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		if werr := utils.WriteInternalServerError(w, "An unexpected error occurred"); werr != nil {
			logger.Error("failed to write internal error response", zap.Error(werr))
		}
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		if werr := utils.WriteBadRequest(w, "Validation failed", details); werr != nil {
			logger.Error("failed to write validation error response", zap.Error(werr))
		}
		return
	}

	if werr := utils.WriteBadRequest(w, err.Error(), nil); werr != nil {
		logger.Error("failed to write validation error response", zap.Error(werr))
	}
}
