package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/abirzishan32/Tukhor-AI/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// DocumentRepository handles document data operations
type DocumentRepository interface {
	// Create creates a new document
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)

	// GetByTitle retrieves a document by its exact title
	GetByTitle(ctx context.Context, title string) (*models.Document, error)

	// List retrieves documents with pagination, newest first
	List(ctx context.Context, limit, offset int) ([]*models.Document, error)

	// Delete deletes a document; chunks cascade
	Delete(ctx context.Context, id uuid.UUID) error

	// Stats returns corpus-wide document statistics
	Stats(ctx context.Context) (*DocumentStats, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) DocumentRepository
}

// ChunkRepository handles document chunk data operations
type ChunkRepository interface {
	// CreateBatch inserts chunks in one statement batch
	CreateBatch(ctx context.Context, chunks []*models.Chunk) error

	// GetByIDs retrieves chunks joined with their document display fields
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ChunkWithDocument, error)

	// GetByDocumentID retrieves a document's chunks ordered by chunk index
	GetByDocumentID(ctx context.Context, documentID uuid.UUID, limit, offset int) ([]*models.Chunk, error)

	// CountByDocumentID returns how many chunks a document has
	CountByDocumentID(ctx context.Context, documentID uuid.UUID) (int, error)

	// ListEmbeddings streams every stored embedding for index hydration
	ListEmbeddings(ctx context.Context) ([]ChunkEmbedding, error)

	// DeleteByDocumentID removes all chunks of a document
	DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) ChunkRepository
}

// ChunkEmbedding is the minimal projection needed to rebuild the vector
// index at startup.
type ChunkEmbedding struct {
	ChunkID    uuid.UUID
	DocumentID uuid.UUID
	Language   models.Language
	Embedding  []float64
}

// ChatRepository handles chat session data operations
type ChatRepository interface {
	// Create creates a new chat session
	Create(ctx context.Context, chat *models.Chat) error

	// GetByID retrieves a chat by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Chat, error)

	// GetByUserID retrieves a user's chats, most recently updated first
	GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Chat, error)

	// UpdateMemory replaces the chat's short-term memory blob and bumps
	// updated_at
	UpdateMemory(ctx context.Context, chatID uuid.UUID, memory json.RawMessage) error

	// Delete deletes a chat; messages cascade
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) ChatRepository
}

// MessageRepository handles chat message data operations
type MessageRepository interface {
	// Create creates a new message
	Create(ctx context.Context, msg *models.Message) error

	// GetByID retrieves a message by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)

	// GetByChatID retrieves a chat's messages oldest first with pagination
	GetByChatID(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]*models.Message, error)

	// GetRecent retrieves a chat's most recent messages, newest first
	GetRecent(ctx context.Context, chatID uuid.UUID, limit int) ([]*models.Message, error)

	// Stats aggregates assistant messages into pipeline usage statistics
	Stats(ctx context.Context) (*QueryStats, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) MessageRepository
}

// EvaluationRepository handles query evaluation data operations
type EvaluationRepository interface {
	// Upsert inserts the record or updates the scores of an existing one,
	// keyed by message ID
	Upsert(ctx context.Context, rec *models.EvaluationRecord) error

	// SetFeedback records the user's verdict for a message, creating the
	// record when absent; re-submission overwrites (last write wins)
	SetFeedback(ctx context.Context, messageID uuid.UUID, feedback models.FeedbackLabel) error

	// GetByMessageID retrieves the evaluation record for a message
	GetByMessageID(ctx context.Context, messageID uuid.UUID) (*models.EvaluationRecord, error)

	// Stats aggregates stored evaluations, optionally restricted to a
	// created_at window; nil bounds are open
	Stats(ctx context.Context, from, to *time.Time) (*models.EvaluationStats, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) EvaluationRepository
}

// DocumentStats represents aggregate corpus statistics
type DocumentStats struct {
	TotalDocuments int            `json:"total_documents"`
	TotalChunks    int            `json:"total_chunks"`
	TotalWords     int            `json:"total_words"`
	Languages      map[string]int `json:"languages"`
}

// QueryStats represents aggregate question-answering statistics derived
// from stored assistant messages
type QueryStats struct {
	TotalQueries         int            `json:"total_queries"`
	AvgConfidence        float64        `json:"avg_confidence"`
	AvgResponseTime      float64        `json:"avg_response_time"`
	ApproachDistribution map[string]int `json:"approach_distribution"`
	LanguageDistribution map[string]int `json:"language_distribution"`
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Documents   DocumentRepository
	Chunks      ChunkRepository
	Chats       ChatRepository
	Messages    MessageRepository
	Evaluations EvaluationRepository
}
