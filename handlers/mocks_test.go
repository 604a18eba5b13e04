package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/repositories"
	"github.com/abirzishan32/Tukhor-AI/services"
)

// MockQueryService is a mock implementation of QueryService
type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) Ask(ctx context.Context, req services.AskRequest) (*services.AskResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*services.AskResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQueryService) QueryStats(ctx context.Context) (*repositories.QueryStats, error) {
	args := m.Called(ctx)
	if stats := args.Get(0); stats != nil {
		return stats.(*repositories.QueryStats), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCorpusStatsService is a mock implementation of CorpusStatsService
type MockCorpusStatsService struct {
	mock.Mock
}

func (m *MockCorpusStatsService) Stats(ctx context.Context) (*repositories.DocumentStats, error) {
	args := m.Called(ctx)
	if stats := args.Get(0); stats != nil {
		return stats.(*repositories.DocumentStats), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockChatService is a mock implementation of ChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) UserChats(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Chat, error) {
	args := m.Called(ctx, userID, limit, offset)
	if chats := args.Get(0); chats != nil {
		return chats.([]*models.Chat), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatService) ChatHistory(ctx context.Context, userID, chatID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	args := m.Called(ctx, userID, chatID, limit, offset)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatService) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error {
	args := m.Called(ctx, userID, chatID)
	return args.Error(0)
}

// MockDocumentService is a mock implementation of DocumentService
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Ingest(ctx context.Context, req services.UploadRequest) (*models.Document, error) {
	args := m.Called(ctx, req)
	if doc := args.Get(0); doc != nil {
		return doc.(*models.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentService) Detail(ctx context.Context, id uuid.UUID) (*services.DocumentDetail, error) {
	args := m.Called(ctx, id)
	if doc := args.Get(0); doc != nil {
		return doc.(*services.DocumentDetail), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, limit, offset int) ([]*models.Document, error) {
	args := m.Called(ctx, limit, offset)
	if docs := args.Get(0); docs != nil {
		return docs.([]*models.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentService) InitializeKnowledgeBase(ctx context.Context) (*models.Document, error) {
	args := m.Called(ctx)
	if doc := args.Get(0); doc != nil {
		return doc.(*models.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockEvaluationService is a mock implementation of EvaluationService
type MockEvaluationService struct {
	mock.Mock
}

func (m *MockEvaluationService) RecordFeedback(ctx context.Context, messageID uuid.UUID, feedback models.FeedbackLabel) error {
	args := m.Called(ctx, messageID, feedback)
	return args.Error(0)
}

func (m *MockEvaluationService) Evaluation(ctx context.Context, messageID uuid.UUID) (*models.EvaluationRecord, error) {
	args := m.Called(ctx, messageID)
	if rec := args.Get(0); rec != nil {
		return rec.(*models.EvaluationRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEvaluationService) Stats(ctx context.Context, from, to *time.Time) (*models.EvaluationStats, error) {
	args := m.Called(ctx, from, to)
	if stats := args.Get(0); stats != nil {
		return stats.(*models.EvaluationStats), args.Error(1)
	}
	return nil, args.Error(1)
}
