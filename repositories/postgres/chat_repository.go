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

// ChatRepository implements the repositories.ChatRepository interface
type ChatRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *DB, logger *zap.Logger) repositories.ChatRepository {
	return &ChatRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new chat session
func (r *ChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	query := `
		INSERT INTO chats (id, user_id, name, short_term_memory, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	memory := chat.ShortTermMemory
	if len(memory) == 0 {
		memory = json.RawMessage("[]")
	}

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		chat.ID,
		chat.UserID,
		chat.Name,
		[]byte(memory),
		chat.CreatedAt,
		chat.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	r.logger.Debug("chat created",
		zap.String("id", chat.ID.String()),
		zap.String("user_id", chat.UserID.String()))
	return nil
}

// GetByID retrieves a chat by ID
func (r *ChatRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	query := `
		SELECT id, user_id, name, short_term_memory, created_at, updated_at
		FROM chats
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	chat := &models.Chat{}
	var memory []byte

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Name,
		&memory,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	chat.ShortTermMemory = json.RawMessage(memory)
	return chat, nil
}

// GetByUserID retrieves a user's chats, most recently updated first
func (r *ChatRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Chat, error) {
	query := `
		SELECT id, user_id, name, short_term_memory, created_at, updated_at
		FROM chats
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	var chats []*models.Chat
	for rows.Next() {
		chat := &models.Chat{}
		var memory []byte
		err := rows.Scan(
			&chat.ID,
			&chat.UserID,
			&chat.Name,
			&memory,
			&chat.CreatedAt,
			&chat.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chat.ShortTermMemory = json.RawMessage(memory)
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chats: %w", err)
	}

	return chats, nil
}

// UpdateMemory replaces the chat's short-term memory blob and bumps updated_at
func (r *ChatRepository) UpdateMemory(ctx context.Context, chatID uuid.UUID, memory json.RawMessage) error {
	query := `
		UPDATE chats
		SET short_term_memory = $2, updated_at = $3
		WHERE id = $1
	`

	if len(memory) == 0 {
		memory = json.RawMessage("[]")
	}

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, chatID, []byte(memory), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update chat memory: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// Delete deletes a chat; messages cascade
func (r *ChatRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM chats WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	r.logger.Debug("chat deleted", zap.String("id", id.String()))
	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *ChatRepository) WithTx(tx repositories.Transaction) repositories.ChatRepository {
	return &ChatRepository{
		db:     r.db,
		logger: r.logger,
	}
}
