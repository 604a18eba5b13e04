package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/repositories"
)

type stubMessageRepository struct {
	mock.Mock
}

func (m *stubMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *stubMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	args := m.Called(ctx, id)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *stubMessageRepository) GetByChatID(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	args := m.Called(ctx, chatID, limit, offset)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *stubMessageRepository) GetRecent(ctx context.Context, chatID uuid.UUID, limit int) ([]*models.Message, error) {
	args := m.Called(ctx, chatID, limit)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *stubMessageRepository) Stats(ctx context.Context) (*repositories.QueryStats, error) {
	args := m.Called(ctx)
	if stats := args.Get(0); stats != nil {
		return stats.(*repositories.QueryStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *stubMessageRepository) WithTx(tx repositories.Transaction) repositories.MessageRepository {
	return m
}

func TestHistorySourceAdapter(t *testing.T) {
	chatID := uuid.New()
	repo := new(stubMessageRepository)

	stored := []*models.Message{
		models.NewMessage(chatID, models.RoleAssistant, "answer"),
		models.NewMessage(chatID, models.RoleUser, "question"),
	}
	repo.On("GetRecent", mock.Anything, chatID, 5).Return(stored, nil)

	adapter := &historySourceAdapter{messages: repo}
	msgs, err := adapter.RecentMessages(context.Background(), chatID, 5)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "answer", msgs[0].Content)
	assert.Equal(t, models.RoleUser, msgs[1].Role)
}

func TestHistorySourceAdapter_Error(t *testing.T) {
	repo := new(stubMessageRepository)
	repo.On("GetRecent", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	adapter := &historySourceAdapter{messages: repo}
	_, err := adapter.RecentMessages(context.Background(), uuid.New(), 5)
	assert.Error(t, err)
}
