package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/internal/evaluation"
	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/repositories"
)

func newEvaluationFixture(t *testing.T) (*EvaluationService, *MockEvaluationRepository, *MockMessageRepository) {
	t.Helper()
	evaluations := &MockEvaluationRepository{}
	messages := &MockMessageRepository{}
	repos := &repositories.Repositories{Evaluations: evaluations, Messages: messages}

	embedder := &vocabEmbedder{
		dim: 3,
		vectors: map[string][]float64{
			"অনুপম": {1, 0, 0},
		},
	}
	scorer := evaluation.NewSimilarityStrategy(embedder, zap.NewNop())

	return NewEvaluationService(repos, scorer, zap.NewNop()), evaluations, messages
}

func TestEvaluationService_EvaluateResponse(t *testing.T) {
	service, evaluations, _ := newEvaluationFixture(t)
	messageID := uuid.New()

	var stored *models.EvaluationRecord
	evaluations.On("Upsert", mock.Anything, mock.AnythingOfType("*models.EvaluationRecord")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*models.EvaluationRecord)
		}).
		Return(nil)

	err := service.EvaluateResponse(context.Background(), messageID,
		"অনুপম কে?",
		"অনুপম এই গল্পের কথক।",
		[]string{"অনুপম এই গল্পের কথক।"})
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, messageID, stored.MessageID)
	require.NotNil(t, stored.Groundedness)
	require.NotNil(t, stored.Relevance)
	// Answer and source embed to the same vector.
	assert.InDelta(t, 1.0, *stored.Groundedness, 1e-9)
	assert.InDelta(t, 1.0, *stored.Relevance, 1e-9)

	var metrics evaluation.QualityMetrics
	require.NoError(t, json.Unmarshal(stored.Metadata, &metrics))
	assert.Greater(t, metrics.OverallScore, 0.0)
}

func TestEvaluationService_RecordFeedback(t *testing.T) {
	service, evaluations, messages := newEvaluationFixture(t)
	messageID := uuid.New()

	messages.On("GetByID", mock.Anything, messageID).
		Return(models.NewMessage(uuid.New(), models.RoleAssistant, "answer"), nil)
	evaluations.On("SetFeedback", mock.Anything, messageID, models.FeedbackHelpful).Return(nil)

	require.NoError(t, service.RecordFeedback(context.Background(), messageID, models.FeedbackHelpful))
	evaluations.AssertCalled(t, "SetFeedback", mock.Anything, messageID, models.FeedbackHelpful)
}

func TestEvaluationService_RecordFeedbackInvalidLabel(t *testing.T) {
	service, evaluations, _ := newEvaluationFixture(t)

	err := service.RecordFeedback(context.Background(), uuid.New(), models.FeedbackLabel("amazing"))
	assert.ErrorIs(t, err, ErrInvalidFeedback)
	evaluations.AssertNotCalled(t, "SetFeedback", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluationService_RecordFeedbackUnknownMessage(t *testing.T) {
	service, _, messages := newEvaluationFixture(t)
	messageID := uuid.New()

	messages.On("GetByID", mock.Anything, messageID).Return(nil, sql.ErrNoRows)

	err := service.RecordFeedback(context.Background(), messageID, models.FeedbackPartial)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestEvaluationService_Stats(t *testing.T) {
	service, evaluations, _ := newEvaluationFixture(t)

	evaluations.On("Stats", mock.Anything, mock.Anything, mock.Anything).Return(&models.EvaluationStats{
		TotalEvaluations: 4,
		AvgGroundedness:  0.8,
		FeedbackDistribution: map[string]int{
			"helpful": 3,
		},
	}, nil)

	stats, err := service.Stats(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalEvaluations)
	assert.Equal(t, 3, stats.FeedbackDistribution["helpful"])
}
