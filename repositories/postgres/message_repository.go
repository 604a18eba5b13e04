package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/repositories"
)

// MessageRepository implements the repositories.MessageRepository interface
type MessageRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB, logger *zap.Logger) repositories.MessageRepository {
	return &MessageRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new message
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, role, content, retrieved_chunks, confidence, response_time, rag_metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		msg.ID,
		msg.ChatID,
		msg.Role,
		msg.Content,
		nullableJSON(msg.RetrievedChunks),
		msg.Confidence,
		msg.ResponseTime,
		nullableJSON(msg.RAGMetadata),
		msg.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	r.logger.Debug("message created",
		zap.String("id", msg.ID.String()),
		zap.String("chat_id", msg.ChatID.String()),
		zap.String("role", string(msg.Role)))
	return nil
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	query := `
		SELECT id, chat_id, role, content, retrieved_chunks, confidence, response_time, rag_metadata, created_at
		FROM messages
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	msg, err := scanMessage(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// GetByChatID retrieves a chat's messages oldest first with pagination
func (r *MessageRepository) GetByChatID(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	query := `
		SELECT id, chat_id, role, content, retrieved_chunks, confidence, response_time, rag_metadata, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`

	return r.queryMessages(ctx, query, chatID, limit, offset)
}

// GetRecent retrieves a chat's most recent messages, newest first
func (r *MessageRepository) GetRecent(ctx context.Context, chatID uuid.UUID, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, chat_id, role, content, retrieved_chunks, confidence, response_time, rag_metadata, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	return r.queryMessages(ctx, query, chatID, limit)
}

// Stats aggregates assistant messages into pipeline usage statistics
func (r *MessageRepository) Stats(ctx context.Context) (*repositories.QueryStats, error) {
	executor := GetExecutor(ctx, r.db)

	stats := &repositories.QueryStats{
		ApproachDistribution: make(map[string]int),
		LanguageDistribution: make(map[string]int),
	}

	totalsQuery := `
		SELECT COUNT(*),
		       COALESCE(AVG(confidence), 0),
		       COALESCE(AVG(response_time), 0)
		FROM messages
		WHERE role = 'assistant'
	`
	err := executor.QueryRowContext(ctx, totalsQuery).Scan(
		&stats.TotalQueries,
		&stats.AvgConfidence,
		&stats.AvgResponseTime,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate message stats: %w", err)
	}

	distQuery := `
		SELECT COALESCE(rag_metadata->>'approach', 'unknown'),
		       COALESCE(rag_metadata->>'language', 'unknown'),
		       COUNT(*)
		FROM messages
		WHERE role = 'assistant'
		GROUP BY 1, 2
	`
	rows, err := executor.QueryContext(ctx, distQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate message distributions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var approach, language string
		var count int
		if err := rows.Scan(&approach, &language, &count); err != nil {
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		stats.ApproachDistribution[approach] += count
		stats.LanguageDistribution[language] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate distribution rows: %w", err)
	}

	return stats, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *MessageRepository) WithTx(tx repositories.Transaction) repositories.MessageRepository {
	return &MessageRepository{
		db:     r.db,
		logger: r.logger,
	}
}

func (r *MessageRepository) queryMessages(ctx context.Context, query string, args ...interface{}) ([]*models.Message, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

func scanMessage(row rowScanner) (*models.Message, error) {
	msg := &models.Message{}
	var retrievedChunks, ragMetadata []byte

	err := row.Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.Role,
		&msg.Content,
		&retrievedChunks,
		&msg.Confidence,
		&msg.ResponseTime,
		&ragMetadata,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	msg.RetrievedChunks = json.RawMessage(retrievedChunks)
	msg.RAGMetadata = json.RawMessage(ragMetadata)
	return msg, nil
}

// nullableJSON maps an empty blob to SQL NULL.
func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
