package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/services"
)

func chatTestRouter(handler *ChatHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/chats", handler.HandleListChats)
	r.Get("/chats/{id}/messages", handler.HandleChatMessages)
	r.Delete("/chats/{id}", handler.HandleDeleteChat)
	return r
}

func TestHandleListChats(t *testing.T) {
	userID := uuid.New()

	chats := new(MockChatService)
	handler := NewChatHandler(chats, zap.NewNop())

	chats.On("UserChats", mock.Anything, userID, 5, 10).Return([]*models.Chat{
		models.NewChat(userID, "অপরিচিতা প্রশ্ন"),
	}, nil)

	req := authenticatedRequest(http.MethodGet, "/chats?limit=5&offset=10", nil, userID)
	rec := httptest.NewRecorder()

	chatTestRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "অপরিচিতা প্রশ্ন", data[0].(map[string]interface{})["name"])
	chats.AssertExpectations(t)
}

func TestHandleListChats_DefaultPagination(t *testing.T) {
	userID := uuid.New()

	chats := new(MockChatService)
	handler := NewChatHandler(chats, zap.NewNop())

	chats.On("UserChats", mock.Anything, userID, 20, 0).Return([]*models.Chat{}, nil)

	req := authenticatedRequest(http.MethodGet, "/chats", nil, userID)
	rec := httptest.NewRecorder()

	chatTestRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	chats.AssertExpectations(t)
}

func TestHandleListChats_CapsLimit(t *testing.T) {
	userID := uuid.New()

	chats := new(MockChatService)
	handler := NewChatHandler(chats, zap.NewNop())

	chats.On("UserChats", mock.Anything, userID, maxPageSize, 0).Return([]*models.Chat{}, nil)

	req := authenticatedRequest(http.MethodGet, "/chats?limit=5000", nil, userID)
	rec := httptest.NewRecorder()

	chatTestRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	chats.AssertExpectations(t)
}

func TestHandleListChats_Unauthenticated(t *testing.T) {
	handler := NewChatHandler(new(MockChatService), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()

	chatTestRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleChatMessages(t *testing.T) {
	userID := uuid.New()
	chatID := uuid.New()

	chats := new(MockChatService)
	handler := NewChatHandler(chats, zap.NewNop())

	msg := models.NewMessage(chatID, models.RoleUser, "অনুপম কে?")
	chats.On("ChatHistory", mock.Anything, userID, chatID, 50, 0).Return([]*models.Message{msg}, nil)

	req := authenticatedRequest(http.MethodGet, "/chats/"+chatID.String()+"/messages", nil, userID)
	rec := httptest.NewRecorder()

	chatTestRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "অনুপম কে?", data[0].(map[string]interface{})["content"])
}

func TestHandleChatMessages_ForeignChat(t *testing.T) {
	userID := uuid.New()
	chatID := uuid.New()

	chats := new(MockChatService)
	handler := NewChatHandler(chats, zap.NewNop())

	chats.On("ChatHistory", mock.Anything, userID, chatID, 50, 0).Return(nil, services.ErrChatMismatch)

	req := authenticatedRequest(http.MethodGet, "/chats/"+chatID.String()+"/messages", nil, userID)
	rec := httptest.NewRecorder()

	chatTestRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleChatMessages_InvalidID(t *testing.T) {
	handler := NewChatHandler(new(MockChatService), zap.NewNop())

	req := authenticatedRequest(http.MethodGet, "/chats/not-a-uuid/messages", nil, uuid.New())
	rec := httptest.NewRecorder()

	chatTestRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDeleteChat(t *testing.T) {
	userID := uuid.New()
	chatID := uuid.New()

	chats := new(MockChatService)
	handler := NewChatHandler(chats, zap.NewNop())

	chats.On("DeleteChat", mock.Anything, userID, chatID).Return(nil)

	req := authenticatedRequest(http.MethodDelete, "/chats/"+chatID.String(), nil, userID)
	rec := httptest.NewRecorder()

	chatTestRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	chats.AssertExpectations(t)
}

func TestHandleDeleteChat_NotFound(t *testing.T) {
	userID := uuid.New()
	chatID := uuid.New()

	chats := new(MockChatService)
	handler := NewChatHandler(chats, zap.NewNop())

	chats.On("DeleteChat", mock.Anything, userID, chatID).Return(services.ErrChatNotFound)

	req := authenticatedRequest(http.MethodDelete, "/chats/"+chatID.String(), nil, userID)
	rec := httptest.NewRecorder()

	chatTestRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
