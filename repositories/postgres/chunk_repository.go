package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/repositories"
)

// ChunkRepository implements the repositories.ChunkRepository interface
type ChunkRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewChunkRepository creates a new chunk repository
func NewChunkRepository(db *DB, logger *zap.Logger) repositories.ChunkRepository {
	return &ChunkRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts chunks in one multi-row statement
func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	var (
		placeholders []string
		args         []interface{}
	)
	for i, chunk := range chunks {
		metadata, err := chunk.Metadata.Value()
		if err != nil {
			return fmt.Errorf("failed to encode chunk metadata: %w", err)
		}

		base := i * 8
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args,
			chunk.ID,
			chunk.DocumentID,
			chunk.ChunkIndex,
			chunk.Content,
			chunk.CharCount,
			pq.Array(chunk.Embedding),
			metadata,
			chunk.CreatedAt,
		)
	}

	query := `
		INSERT INTO document_chunks (id, document_id, chunk_index, content, char_count, embedding, metadata, created_at)
		VALUES ` + strings.Join(placeholders, ", ")

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create chunks: %w", err)
	}

	r.logger.Debug("chunks created",
		zap.String("document_id", chunks[0].DocumentID.String()),
		zap.Int("count", len(chunks)))
	return nil
}

// GetByIDs retrieves chunks joined with their document display fields
func (r *ChunkRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ChunkWithDocument, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT c.id, c.document_id, c.chunk_index, c.content, c.char_count, c.embedding, c.metadata, c.created_at,
		       d.title, d.language
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.id = ANY($1)
	`

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, pq.Array(idStrings))
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var result []models.ChunkWithDocument
	for rows.Next() {
		var (
			row       models.ChunkWithDocument
			embedding pq.Float64Array
			metadata  []byte
		)
		err := rows.Scan(
			&row.ID,
			&row.DocumentID,
			&row.ChunkIndex,
			&row.Content,
			&row.CharCount,
			&embedding,
			&metadata,
			&row.CreatedAt,
			&row.DocumentTitle,
			&row.DocumentLanguage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		row.Embedding = []float64(embedding)
		row.Metadata, err = models.ScanMetadata(metadata)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	return result, nil
}

// GetByDocumentID retrieves a document's chunks ordered by chunk index
func (r *ChunkRepository) GetByDocumentID(ctx context.Context, documentID uuid.UUID, limit, offset int) ([]*models.Chunk, error) {
	query := `
		SELECT id, document_id, chunk_index, content, char_count, embedding, metadata, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index
		LIMIT $2 OFFSET $3
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, documentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		var (
			chunk     models.Chunk
			embedding pq.Float64Array
			metadata  []byte
		)
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.CharCount,
			&embedding,
			&metadata,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunk.Embedding = []float64(embedding)
		chunk.Metadata, err = models.ScanMetadata(metadata)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, &chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	return chunks, nil
}

// CountByDocumentID returns how many chunks a document has
func (r *ChunkRepository) CountByDocumentID(ctx context.Context, documentID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`

	executor := GetExecutor(ctx, r.db)
	var count int
	if err := executor.QueryRowContext(ctx, query, documentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// ListEmbeddings streams every stored embedding for index hydration
func (r *ChunkRepository) ListEmbeddings(ctx context.Context) ([]repositories.ChunkEmbedding, error) {
	query := `
		SELECT c.id, c.document_id, d.language, c.embedding
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		ORDER BY c.created_at, c.chunk_index
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	var entries []repositories.ChunkEmbedding
	for rows.Next() {
		var (
			entry     repositories.ChunkEmbedding
			embedding pq.Float64Array
		)
		if err := rows.Scan(&entry.ChunkID, &entry.DocumentID, &entry.Language, &embedding); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		entry.Embedding = []float64(embedding)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate embeddings: %w", err)
	}

	return entries, nil
}

// DeleteByDocumentID removes all chunks of a document
func (r *ChunkRepository) DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error {
	query := `DELETE FROM document_chunks WHERE document_id = $1`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, documentID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	r.logger.Debug("chunks deleted", zap.String("document_id", documentID.String()))
	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *ChunkRepository) WithTx(tx repositories.Transaction) repositories.ChunkRepository {
	return &ChunkRepository{
		db:     r.db,
		logger: r.logger,
	}
}
