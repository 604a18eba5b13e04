package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/services"
	"github.com/abirzishan32/Tukhor-AI/utils"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", services.ErrChatNotFound, http.StatusNotFound},
		{"validation", services.ErrEmptyQuestion, http.StatusBadRequest},
		{"rejected question", services.ErrQuestionRejected.WithDetail("reason", "instruction_override"), http.StatusBadRequest},
		{"unauthorized", services.ErrInvalidToken, http.StatusUnauthorized},
		{"forbidden", services.ErrChatMismatch, http.StatusForbidden},
		{"conflict", services.ErrDuplicateDocument, http.StatusConflict},
		{"embedding failure", services.ErrEmbeddingFailed, http.StatusBadGateway},
		{"generation failure", services.ErrGenerationFailed, http.StatusBadGateway},
		{"index failure", services.ErrIndexFailed, http.StatusServiceUnavailable},
		{"internal", services.ErrDatabaseError, http.StatusInternalServerError},
		{"unknown error type", errors.New("plain error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleServiceError(rec, tt.err, zap.NewNop())
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandleServiceError_NilIsNoop(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleServiceError(rec, nil, zap.NewNop())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestHandleServiceError_DetailsPassedThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	err := services.ErrQuestionRejected.WithDetail("reason", "role_manipulation")
	HandleServiceError(rec, err, zap.NewNop())

	body := decodeEnvelope(t, rec)
	details := body["details"].(map[string]interface{})
	assert.Equal(t, "role_manipulation", details["reason"])
}

func TestHandleValidationError(t *testing.T) {
	type payload struct {
		Question string `validate:"required"`
	}
	err := utils.ValidateStruct(payload{})

	rec := httptest.NewRecorder()
	HandleValidationError(rec, err, zap.NewNop())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Validation failed", body["message"])
	details := body["details"].(map[string]interface{})
	assert.Contains(t, details["Question"], "required")
}
