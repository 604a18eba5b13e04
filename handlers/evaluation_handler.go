package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/utils"
)

// FeedbackPayload is the request body for POST /v1/rag/feedback
type FeedbackPayload struct {
	MessageID uuid.UUID `json:"message_id" validate:"required"`
	Feedback  string    `json:"feedback" validate:"required,oneof=helpful not_helpful partial"`
}

// EvaluationService records feedback and reports answer-quality scores.
type EvaluationService interface {
	// RecordFeedback stores the user's verdict for an assistant message
	RecordFeedback(ctx context.Context, messageID uuid.UUID, feedback models.FeedbackLabel) error

	// Evaluation retrieves the stored record for a message
	Evaluation(ctx context.Context, messageID uuid.UUID) (*models.EvaluationRecord, error)

	// Stats aggregates stored evaluations within an optional time window
	Stats(ctx context.Context, from, to *time.Time) (*models.EvaluationStats, error)
}

// EvaluationHandler handles feedback and evaluation HTTP requests
type EvaluationHandler struct {
	evaluations EvaluationService
	logger      *zap.Logger
}

// NewEvaluationHandler creates a new EvaluationHandler
func NewEvaluationHandler(evaluations EvaluationService, logger *zap.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		evaluations: evaluations,
		logger:      logger,
	}
}

// HandleFeedback handles POST /v1/rag/feedback
func (h *EvaluationHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	var payload FeedbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(payload); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	err := h.evaluations.RecordFeedback(r.Context(), payload.MessageID, models.FeedbackLabel(payload.Feedback))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if werr := utils.WriteOK(w, map[string]string{
		"message_id": payload.MessageID.String(),
		"feedback":   payload.Feedback,
	}); werr != nil {
		h.logger.Error("failed to write feedback response", zap.Error(werr))
	}
}

// HandleGetEvaluation handles GET /v1/evaluation/messages/{id}
func (h *EvaluationHandler) HandleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	messageID, err := utils.ParseUUID(chi.URLParam(r, "id"), "message_id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	rec, err := h.evaluations.Evaluation(r.Context(), messageID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if werr := utils.WriteOK(w, rec); werr != nil {
		h.logger.Error("failed to write evaluation response", zap.Error(werr))
	}
}

// HandleStats handles GET /v1/evaluation/stats
func (h *EvaluationHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r, "from")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	stats, err := h.evaluations.Stats(r.Context(), from, to)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if werr := utils.WriteOK(w, stats); werr != nil {
		h.logger.Error("failed to write evaluation stats response", zap.Error(werr))
	}
}
