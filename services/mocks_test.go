package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/repositories"
)

// MockChatRepository is a mock implementation of ChatRepository
type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

func (m *MockChatRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	args := m.Called(ctx, id)
	if chat := args.Get(0); chat != nil {
		return chat.(*models.Chat), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Chat, error) {
	args := m.Called(ctx, userID, limit, offset)
	if chats := args.Get(0); chats != nil {
		return chats.([]*models.Chat), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatRepository) UpdateMemory(ctx context.Context, chatID uuid.UUID, memory json.RawMessage) error {
	args := m.Called(ctx, chatID, memory)
	return args.Error(0)
}

func (m *MockChatRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockChatRepository) WithTx(tx repositories.Transaction) repositories.ChatRepository {
	return m
}

// MockMessageRepository is a mock implementation of MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	args := m.Called(ctx, id)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) GetByChatID(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	args := m.Called(ctx, chatID, limit, offset)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) GetRecent(ctx context.Context, chatID uuid.UUID, limit int) ([]*models.Message, error) {
	args := m.Called(ctx, chatID, limit)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) Stats(ctx context.Context) (*repositories.QueryStats, error) {
	args := m.Called(ctx)
	if stats := args.Get(0); stats != nil {
		return stats.(*repositories.QueryStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) WithTx(tx repositories.Transaction) repositories.MessageRepository {
	return m
}

// MockDocumentRepository is a mock implementation of DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	args := m.Called(ctx, id)
	if doc := args.Get(0); doc != nil {
		return doc.(*models.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) GetByTitle(ctx context.Context, title string) (*models.Document, error) {
	args := m.Called(ctx, title)
	if doc := args.Get(0); doc != nil {
		return doc.(*models.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, limit, offset int) ([]*models.Document, error) {
	args := m.Called(ctx, limit, offset)
	if docs := args.Get(0); docs != nil {
		return docs.([]*models.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) Stats(ctx context.Context) (*repositories.DocumentStats, error) {
	args := m.Called(ctx)
	if stats := args.Get(0); stats != nil {
		return stats.(*repositories.DocumentStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) WithTx(tx repositories.Transaction) repositories.DocumentRepository {
	return m
}

// MockChunkRepository is a mock implementation of ChunkRepository
type MockChunkRepository struct {
	mock.Mock
}

func (m *MockChunkRepository) CreateBatch(ctx context.Context, chunks []*models.Chunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockChunkRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ChunkWithDocument, error) {
	args := m.Called(ctx, ids)
	if rows := args.Get(0); rows != nil {
		return rows.([]models.ChunkWithDocument), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChunkRepository) GetByDocumentID(ctx context.Context, documentID uuid.UUID, limit, offset int) ([]*models.Chunk, error) {
	args := m.Called(ctx, documentID, limit, offset)
	if chunks := args.Get(0); chunks != nil {
		return chunks.([]*models.Chunk), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChunkRepository) CountByDocumentID(ctx context.Context, documentID uuid.UUID) (int, error) {
	args := m.Called(ctx, documentID)
	return args.Int(0), args.Error(1)
}

func (m *MockChunkRepository) ListEmbeddings(ctx context.Context) ([]repositories.ChunkEmbedding, error) {
	args := m.Called(ctx)
	if entries := args.Get(0); entries != nil {
		return entries.([]repositories.ChunkEmbedding), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChunkRepository) DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

func (m *MockChunkRepository) WithTx(tx repositories.Transaction) repositories.ChunkRepository {
	return m
}

// MockEvaluationRepository is a mock implementation of EvaluationRepository
type MockEvaluationRepository struct {
	mock.Mock
}

func (m *MockEvaluationRepository) Upsert(ctx context.Context, rec *models.EvaluationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockEvaluationRepository) SetFeedback(ctx context.Context, messageID uuid.UUID, feedback models.FeedbackLabel) error {
	args := m.Called(ctx, messageID, feedback)
	return args.Error(0)
}

func (m *MockEvaluationRepository) GetByMessageID(ctx context.Context, messageID uuid.UUID) (*models.EvaluationRecord, error) {
	args := m.Called(ctx, messageID)
	if rec := args.Get(0); rec != nil {
		return rec.(*models.EvaluationRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEvaluationRepository) Stats(ctx context.Context, from, to *time.Time) (*models.EvaluationStats, error) {
	args := m.Called(ctx, from, to)
	if stats := args.Get(0); stats != nil {
		return stats.(*models.EvaluationStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEvaluationRepository) WithTx(tx repositories.Transaction) repositories.EvaluationRepository {
	return m
}

// fakeTransactionManager runs the function directly against the plain
// connection context, no real transaction involved.
type fakeTransactionManager struct {
	beginErr error
}

func (f *fakeTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return fakeTransaction{ctx: ctx}, nil
}

func (f *fakeTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	return fn(ctx, fakeTransaction{ctx: ctx})
}

type fakeTransaction struct {
	ctx context.Context
}

func (fakeTransaction) Commit() error            { return nil }
func (fakeTransaction) Rollback() error          { return nil }
func (t fakeTransaction) Context() context.Context { return t.ctx }

// vocabEmbedder maps text to a fixed vector per known keyword, so tests
// control similarity exactly.
type vocabEmbedder struct {
	dim     int
	vectors map[string][]float64
	failing bool
}

func (e *vocabEmbedder) Encode(ctx context.Context, text string) ([]float64, error) {
	if e.failing {
		return nil, fmt.Errorf("embedder down")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty input")
	}
	for keyword, vec := range e.vectors {
		if strings.Contains(strings.ToLower(text), keyword) {
			return vec, nil
		}
	}
	vec := make([]float64, e.dim)
	vec[e.dim-1] = 1
	return vec, nil
}

func (e *vocabEmbedder) EncodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := e.Encode(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *vocabEmbedder) Dimension() int { return e.dim }

// stubGenerator returns a fixed answer or error and records prompts.
type stubGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}
