package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/middleware"
	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/utils"
)

// ChatService exposes chat session reads and deletion, ownership-checked
// against the calling user.
type ChatService interface {
	// UserChats lists a user's chats, most recently updated first
	UserChats(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Chat, error)

	// ChatHistory lists a chat's messages oldest first
	ChatHistory(ctx context.Context, userID, chatID uuid.UUID, limit, offset int) ([]*models.Message, error)

	// DeleteChat deletes a chat and its messages
	DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error
}

// ChatHandler handles chat session HTTP requests
type ChatHandler struct {
	chats  ChatService
	logger *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chats ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chats:  chats,
		logger: logger,
	}
}

// HandleListChats handles GET /v1/chats
func (h *ChatHandler) HandleListChats(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit, offset := parsePagination(r, 20)
	chats, err := h.chats.UserChats(r.Context(), identity.UserID, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if werr := utils.WriteOK(w, chats); werr != nil {
		h.logger.Error("failed to write chat list response", zap.Error(werr))
	}
}

// HandleChatMessages handles GET /v1/chats/{id}/messages
func (h *ChatHandler) HandleChatMessages(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	chatID, err := utils.ParseUUID(chi.URLParam(r, "id"), "chat_id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	limit, offset := parsePagination(r, 50)
	messages, err := h.chats.ChatHistory(r.Context(), identity.UserID, chatID, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if werr := utils.WriteOK(w, messages); werr != nil {
		h.logger.Error("failed to write chat messages response", zap.Error(werr))
	}
}

// HandleDeleteChat handles DELETE /v1/chats/{id}
func (h *ChatHandler) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	chatID, err := utils.ParseUUID(chi.URLParam(r, "id"), "chat_id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	if err := h.chats.DeleteChat(r.Context(), identity.UserID, chatID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}
