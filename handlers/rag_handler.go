package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/middleware"
	"github.com/abirzishan32/Tukhor-AI/repositories"
	"github.com/abirzishan32/Tukhor-AI/services"
	"github.com/abirzishan32/Tukhor-AI/utils"
)

// AskPayload is the request body for POST /v1/rag/ask
type AskPayload struct {
	Question       string      `json:"question" validate:"required,max=2000"`
	ChatID         *uuid.UUID  `json:"chat_id,omitempty"`
	IncludeHistory *bool       `json:"include_history,omitempty"`
	DocumentIDs    []uuid.UUID `json:"document_ids,omitempty"`
}

// QueryService answers questions and reports pipeline usage.
type QueryService interface {
	// Ask runs the full question-answering pipeline for one question
	Ask(ctx context.Context, req services.AskRequest) (*services.AskResponse, error)

	// QueryStats aggregates stored assistant messages
	QueryStats(ctx context.Context) (*repositories.QueryStats, error)
}

// CorpusStatsService reports document corpus statistics.
type CorpusStatsService interface {
	Stats(ctx context.Context) (*repositories.DocumentStats, error)
}

// QueryHandler handles question-answering HTTP requests
type QueryHandler struct {
	queries QueryService
	corpus  CorpusStatsService
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(queries QueryService, corpus CorpusStatsService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		queries: queries,
		corpus:  corpus,
		logger:  logger,
	}
}

// HandleAsk handles POST /v1/rag/ask
func (h *QueryHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	var payload AskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(payload); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	// History is on unless the client opts out
	includeHistory := true
	if payload.IncludeHistory != nil {
		includeHistory = *payload.IncludeHistory
	}

	resp, err := h.queries.Ask(r.Context(), services.AskRequest{
		UserID:         identity.UserID,
		ChatID:         payload.ChatID,
		Question:       payload.Question,
		IncludeHistory: includeHistory,
		DocumentIDs:    payload.DocumentIDs,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if werr := utils.WriteOK(w, resp); werr != nil {
		h.logger.Error("failed to write ask response", zap.Error(werr))
	}
}

// PipelineStatsResponse is the response body for GET /v1/rag/stats
type PipelineStatsResponse struct {
	Queries *repositories.QueryStats    `json:"queries"`
	Corpus  *repositories.DocumentStats `json:"corpus"`
}

// HandleStats handles GET /v1/rag/stats
func (h *QueryHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	queries, err := h.queries.QueryStats(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	corpus, err := h.corpus.Stats(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if werr := utils.WriteOK(w, PipelineStatsResponse{Queries: queries, Corpus: corpus}); werr != nil {
		h.logger.Error("failed to write stats response", zap.Error(werr))
	}
}
