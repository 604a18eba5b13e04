package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/internal/evaluation"
	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/repositories"
)

// EvaluationService scores answers after the fact and records user
// feedback. At most one evaluation record exists per message.
type EvaluationService struct {
	repos  *repositories.Repositories
	scorer evaluation.ScoringStrategy
	logger *zap.Logger
}

// NewEvaluationService creates the evaluation service.
func NewEvaluationService(repos *repositories.Repositories, scorer evaluation.ScoringStrategy, logger *zap.Logger) *EvaluationService {
	return &EvaluationService{
		repos:  repos,
		scorer: scorer,
		logger: logger,
	}
}

// EvaluateResponse computes the quality metrics for an answered question
// and upserts them under the assistant message. Re-evaluation overwrites
// the scores but never an existing feedback label.
func (s *EvaluationService) EvaluateResponse(ctx context.Context, messageID uuid.UUID, query, answer string, sources []string) error {
	metrics := s.scorer.Quality(ctx, query, answer, sources)

	metaBlob, err := json.Marshal(metrics)
	if err != nil {
		return WrapInternal("failed to encode quality metrics", err)
	}

	rec := models.NewEvaluationRecord(messageID)
	rec.Groundedness = &metrics.Groundedness
	rec.Relevance = &metrics.Relevance
	rec.Metadata = metaBlob

	if err := s.repos.Evaluations.Upsert(ctx, rec); err != nil {
		return WrapInternal("failed to store evaluation", err)
	}

	s.logger.Debug("answer evaluated",
		zap.String("message_id", messageID.String()),
		zap.Float64("groundedness", metrics.Groundedness),
		zap.Float64("relevance", metrics.Relevance),
		zap.Float64("overall", metrics.OverallScore))
	return nil
}

// RecordFeedback stores the user's verdict for an assistant message.
// Re-submission overwrites the previous label.
func (s *EvaluationService) RecordFeedback(ctx context.Context, messageID uuid.UUID, feedback models.FeedbackLabel) error {
	if !feedback.Valid() {
		return ErrInvalidFeedback.WithDetail("feedback", string(feedback))
	}

	if _, err := s.repos.Messages.GetByID(ctx, messageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMessageNotFound
		}
		return WrapInternal("failed to load message", err)
	}

	if err := s.repos.Evaluations.SetFeedback(ctx, messageID, feedback); err != nil {
		return WrapInternal("failed to store feedback", err)
	}

	s.logger.Info("feedback recorded",
		zap.String("message_id", messageID.String()),
		zap.String("feedback", string(feedback)))
	return nil
}

// Evaluation retrieves the stored record for a message.
func (s *EvaluationService) Evaluation(ctx context.Context, messageID uuid.UUID) (*models.EvaluationRecord, error) {
	rec, err := s.repos.Evaluations.GetByMessageID(ctx, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEvaluationNotFound
		}
		return nil, WrapInternal("failed to load evaluation", err)
	}
	return rec, nil
}

// Stats aggregates stored evaluations and feedback, optionally restricted
// to a time window. Nil bounds leave that side of the window open.
func (s *EvaluationService) Stats(ctx context.Context, from, to *time.Time) (*models.EvaluationStats, error) {
	stats, err := s.repos.Evaluations.Stats(ctx, from, to)
	if err != nil {
		return nil, WrapInternal("failed to aggregate evaluation stats", err)
	}
	return stats, nil
}
