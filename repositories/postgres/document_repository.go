package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/repositories"
)

// DocumentRepository implements the repositories.DocumentRepository interface
type DocumentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB, logger *zap.Logger) repositories.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, title, content, language, word_count, page_count, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	metadata, err := doc.Metadata.Value()
	if err != nil {
		return fmt.Errorf("failed to encode document metadata: %w", err)
	}

	executor := GetExecutor(ctx, r.db)
	_, err = executor.ExecContext(ctx, query,
		doc.ID,
		doc.Title,
		doc.Content,
		doc.Language,
		doc.WordCount,
		doc.PageCount,
		metadata,
		doc.CreatedAt,
		doc.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	r.logger.Debug("document created",
		zap.String("id", doc.ID.String()),
		zap.String("title", doc.Title))
	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := `
		SELECT id, title, content, language, word_count, page_count, metadata, created_at, updated_at
		FROM documents
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	return r.scanDocument(executor.QueryRowContext(ctx, query, id))
}

// GetByTitle retrieves a document by its exact title
func (r *DocumentRepository) GetByTitle(ctx context.Context, title string) (*models.Document, error) {
	query := `
		SELECT id, title, content, language, word_count, page_count, metadata, created_at, updated_at
		FROM documents
		WHERE title = $1
	`

	executor := GetExecutor(ctx, r.db)
	return r.scanDocument(executor.QueryRowContext(ctx, query, title))
}

// List retrieves documents with pagination, newest first
func (r *DocumentRepository) List(ctx context.Context, limit, offset int) ([]*models.Document, error) {
	query := `
		SELECT id, title, content, language, word_count, page_count, metadata, created_at, updated_at
		FROM documents
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := r.scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}

// Delete deletes a document; chunks cascade
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM documents WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	r.logger.Debug("document deleted", zap.String("id", id.String()))
	return nil
}

// Stats returns corpus-wide document statistics
func (r *DocumentRepository) Stats(ctx context.Context) (*repositories.DocumentStats, error) {
	executor := GetExecutor(ctx, r.db)

	stats := &repositories.DocumentStats{Languages: make(map[string]int)}

	totalsQuery := `
		SELECT COUNT(d.id),
		       COALESCE(SUM(d.word_count), 0),
		       (SELECT COUNT(*) FROM document_chunks)
		FROM documents d
	`
	err := executor.QueryRowContext(ctx, totalsQuery).Scan(
		&stats.TotalDocuments,
		&stats.TotalWords,
		&stats.TotalChunks,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate document stats: %w", err)
	}

	langQuery := `SELECT language, COUNT(*) FROM documents GROUP BY language`
	rows, err := executor.QueryContext(ctx, langQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate document languages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var language string
		var count int
		if err := rows.Scan(&language, &count); err != nil {
			return nil, fmt.Errorf("failed to scan language count: %w", err)
		}
		stats.Languages[language] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate language counts: %w", err)
	}

	return stats, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *DocumentRepository) WithTx(tx repositories.Transaction) repositories.DocumentRepository {
	return &DocumentRepository{
		db:     r.db,
		logger: r.logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *DocumentRepository) scanDocument(row *sql.Row) (*models.Document, error) {
	doc, err := r.scanDocumentRow(row)
	if err == sql.ErrNoRows {
		return nil, err
	}
	return doc, err
}

func (r *DocumentRepository) scanDocumentRow(row rowScanner) (*models.Document, error) {
	doc := &models.Document{}
	var metadata []byte

	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&doc.Language,
		&doc.WordCount,
		&doc.PageCount,
		&metadata,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	doc.Metadata, err = models.ScanMetadata(metadata)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
