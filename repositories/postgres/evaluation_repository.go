package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/repositories"
)

// EvaluationRepository implements the repositories.EvaluationRepository interface
type EvaluationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewEvaluationRepository creates a new evaluation repository
func NewEvaluationRepository(db *DB, logger *zap.Logger) repositories.EvaluationRepository {
	return &EvaluationRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts the record or updates the scores of an existing one,
// keyed by message ID
func (r *EvaluationRepository) Upsert(ctx context.Context, rec *models.EvaluationRecord) error {
	query := `
		INSERT INTO query_evaluations (id, message_id, groundedness, relevance, user_feedback, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (message_id) DO UPDATE
		SET groundedness = EXCLUDED.groundedness,
		    relevance = EXCLUDED.relevance,
		    metadata = EXCLUDED.metadata,
		    updated_at = EXCLUDED.updated_at
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		rec.ID,
		rec.MessageID,
		rec.Groundedness,
		rec.Relevance,
		rec.UserFeedback,
		nullableJSON(rec.Metadata),
		rec.CreatedAt,
		rec.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert evaluation: %w", err)
	}

	r.logger.Debug("evaluation stored", zap.String("message_id", rec.MessageID.String()))
	return nil
}

// SetFeedback records the user's verdict for a message, creating the
// record when absent; re-submission overwrites (last write wins)
func (r *EvaluationRepository) SetFeedback(ctx context.Context, messageID uuid.UUID, feedback models.FeedbackLabel) error {
	query := `
		INSERT INTO query_evaluations (id, message_id, user_feedback, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (message_id) DO UPDATE
		SET user_feedback = EXCLUDED.user_feedback,
		    updated_at = EXCLUDED.updated_at
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query, uuid.New(), messageID, feedback, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	r.logger.Debug("feedback stored",
		zap.String("message_id", messageID.String()),
		zap.String("feedback", string(feedback)))
	return nil
}

// GetByMessageID retrieves the evaluation record for a message
func (r *EvaluationRepository) GetByMessageID(ctx context.Context, messageID uuid.UUID) (*models.EvaluationRecord, error) {
	query := `
		SELECT id, message_id, groundedness, relevance, user_feedback, metadata, created_at, updated_at
		FROM query_evaluations
		WHERE message_id = $1
	`

	executor := GetExecutor(ctx, r.db)
	rec := &models.EvaluationRecord{}
	var metadata []byte

	err := executor.QueryRowContext(ctx, query, messageID).Scan(
		&rec.ID,
		&rec.MessageID,
		&rec.Groundedness,
		&rec.Relevance,
		&rec.UserFeedback,
		&metadata,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}

	rec.Metadata = json.RawMessage(metadata)
	return rec, nil
}

// Stats aggregates stored evaluations, optionally restricted to a
// created_at window; nil bounds are open
func (r *EvaluationRepository) Stats(ctx context.Context, from, to *time.Time) (*models.EvaluationStats, error) {
	executor := GetExecutor(ctx, r.db)

	stats := &models.EvaluationStats{
		FeedbackDistribution: make(map[string]int),
		ApproachDistribution: make(map[string]int),
		LanguageDistribution: make(map[string]int),
	}

	totalsQuery := `
		SELECT COUNT(*),
		       COALESCE(AVG(groundedness), 0),
		       COALESCE(AVG(relevance), 0),
		       MIN(created_at),
		       MAX(created_at)
		FROM query_evaluations
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
	`
	var windowStart, windowEnd sql.NullTime
	err := executor.QueryRowContext(ctx, totalsQuery, from, to).Scan(
		&stats.TotalEvaluations,
		&stats.AvgGroundedness,
		&stats.AvgRelevance,
		&windowStart,
		&windowEnd,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate evaluation stats: %w", err)
	}
	if windowStart.Valid {
		stats.WindowStart = &windowStart.Time
	}
	if windowEnd.Valid {
		stats.WindowEnd = &windowEnd.Time
	}

	feedbackQuery := `
		SELECT user_feedback, COUNT(*)
		FROM query_evaluations
		WHERE user_feedback IS NOT NULL
		  AND ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
		GROUP BY user_feedback
	`
	rows, err := executor.QueryContext(ctx, feedbackQuery, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate feedback distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("failed to scan feedback count: %w", err)
		}
		stats.FeedbackDistribution[label] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback counts: %w", err)
	}

	distQuery := `
		SELECT COALESCE(m.rag_metadata->>'approach', 'unknown'),
		       COALESCE(m.rag_metadata->>'language', 'unknown'),
		       COUNT(*)
		FROM query_evaluations e
		JOIN messages m ON m.id = e.message_id
		WHERE ($1::timestamptz IS NULL OR e.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR e.created_at <= $2)
		GROUP BY 1, 2
	`
	distRows, err := executor.QueryContext(ctx, distQuery, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate evaluation distributions: %w", err)
	}
	defer distRows.Close()

	for distRows.Next() {
		var approach, language string
		var count int
		if err := distRows.Scan(&approach, &language, &count); err != nil {
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		stats.ApproachDistribution[approach] += count
		stats.LanguageDistribution[language] += count
	}
	if err := distRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate distribution rows: %w", err)
	}

	return stats, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *EvaluationRepository) WithTx(tx repositories.Transaction) repositories.EvaluationRepository {
	return &EvaluationRepository{
		db:     r.db,
		logger: r.logger,
	}
}
