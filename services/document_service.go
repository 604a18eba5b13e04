package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/config"
	"github.com/abirzishan32/Tukhor-AI/internal/embedding"
	"github.com/abirzishan32/Tukhor-AI/internal/storage"
	"github.com/abirzishan32/Tukhor-AI/internal/textproc"
	"github.com/abirzishan32/Tukhor-AI/internal/vectorindex"
	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/repositories"
)

// UploadRequest carries one document into the ingestion pipeline.
type UploadRequest struct {
	Title    string
	Filename string
	Content  []byte
}

// DocumentService ingests documents: normalize, chunk, embed, persist,
// index. Ingestion of the same title is serialized so duplicate checks
// and inserts cannot interleave.
type DocumentService struct {
	repos     *repositories.Repositories
	txManager repositories.TransactionManager
	store     storage.ObjectStorage
	norm      *textproc.Normalizer
	chunker   *textproc.Chunker
	detector  *textproc.Detector
	embedder  embedding.Embedder
	index     vectorindex.Index
	upload    config.UploadConfig
	kb        config.KnowledgeBaseConfig
	logger    *zap.Logger

	titleLocks *keyedMutex
}

// NewDocumentService creates the ingestion service.
func NewDocumentService(
	repos *repositories.Repositories,
	txManager repositories.TransactionManager,
	store storage.ObjectStorage,
	norm *textproc.Normalizer,
	chunker *textproc.Chunker,
	detector *textproc.Detector,
	embedder embedding.Embedder,
	index vectorindex.Index,
	upload config.UploadConfig,
	kb config.KnowledgeBaseConfig,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		repos:      repos,
		txManager:  txManager,
		store:      store,
		norm:       norm,
		chunker:    chunker,
		detector:   detector,
		embedder:   embedder,
		index:      index,
		upload:     upload,
		kb:         kb,
		logger:     logger,
		titleLocks: newKeyedMutex(),
	}
}

// Ingest runs the full ingestion pipeline for one uploaded document.
func (s *DocumentService) Ingest(ctx context.Context, req UploadRequest) (*models.Document, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(req.Filename), filepath.Ext(req.Filename))
	}
	if title == "" {
		return nil, ErrInvalidInput.WithDetail("field", "title")
	}

	if err := s.validateUpload(req); err != nil {
		return nil, err
	}

	s.titleLocks.Lock(title)
	defer s.titleLocks.Unlock(title)

	if _, err := s.repos.Documents.GetByTitle(ctx, title); err == nil {
		return nil, ErrDuplicateDocument.WithDetail("title", title)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, WrapError(ErrorTypeInternal, "failed to check for duplicate document", err)
	}

	content := s.norm.Normalize(string(req.Content))
	if content == "" {
		return nil, ErrEmptyDocument
	}

	language := s.detector.Detect(content)
	doc := models.NewDocument(title, content, language)
	doc.WordCount = len(strings.Fields(content))
	doc.PageCount = 1
	doc.Metadata = models.Metadata{"filename": req.Filename, "language": string(language)}

	segments := s.chunker.Split(content)
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}

	vectors, err := s.embedder.EncodeBatch(ctx, texts)
	if err != nil {
		if embedding.IsFailure(err) {
			return nil, WrapError(ErrorTypeEmbedding, "failed to embed document chunks", err)
		}
		return nil, WrapError(ErrorTypeInternal, "failed to embed document chunks", err)
	}

	chunks := make([]*models.Chunk, len(segments))
	entries := make([]vectorindex.Entry, len(segments))
	for i, seg := range segments {
		chunk := &models.Chunk{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			ChunkIndex: seg.Index,
			Content:    seg.Text,
			CharCount:  len([]rune(seg.Text)),
			Embedding:  vectors[i],
			Metadata:   models.Metadata{"language": string(language)},
			CreatedAt:  doc.CreatedAt,
		}
		chunks[i] = chunk
		entries[i] = vectorindex.Entry{
			ChunkID:    chunk.ID.String(),
			DocumentID: doc.ID.String(),
			Language:   language,
			Vector:     vectors[i],
		}
	}

	objectKey := s.objectKey(doc.ID, req.Filename)
	if err := s.store.Put(ctx, objectKey, bytes.NewReader(req.Content)); err != nil {
		return nil, WrapError(ErrorTypeInternal, "failed to store document original", err)
	}

	err = s.txManager.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		if err := s.repos.Documents.Create(txCtx, doc); err != nil {
			return err
		}
		return s.repos.Chunks.CreateBatch(txCtx, chunks)
	})
	if err != nil {
		// Persisting failed; the stored original would otherwise leak.
		if delErr := s.store.Delete(ctx, objectKey); delErr != nil {
			s.logger.Warn("failed to clean up stored original", zap.Error(delErr))
		}
		return nil, WrapError(ErrorTypeInternal, "failed to persist document", err)
	}

	if err := s.index.Upsert(ctx, entries); err != nil {
		s.logger.Error("failed to index document chunks, index is stale until restart",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("document ingested",
		zap.String("document_id", doc.ID.String()),
		zap.String("title", title),
		zap.String("language", string(language)),
		zap.Int("chunks", len(chunks)),
		zap.Int("words", doc.WordCount))

	return doc, nil
}

// Get retrieves one document.
func (s *DocumentService) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, err := s.repos.Documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, WrapError(ErrorTypeInternal, "failed to load document", err)
	}
	return doc, nil
}

// DocumentDetail is a document joined with its chunk count.
type DocumentDetail struct {
	*models.Document
	ChunkCount int `json:"chunk_count"`
}

// Detail retrieves one document together with its chunk count.
func (s *DocumentService) Detail(ctx context.Context, id uuid.UUID) (*DocumentDetail, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.repos.Chunks.CountByDocumentID(ctx, id)
	if err != nil {
		return nil, WrapError(ErrorTypeInternal, "failed to count document chunks", err)
	}

	return &DocumentDetail{Document: doc, ChunkCount: count}, nil
}

// List retrieves documents, newest first.
func (s *DocumentService) List(ctx context.Context, limit, offset int) ([]*models.Document, error) {
	if limit <= 0 {
		limit = 20
	}
	docs, err := s.repos.Documents.List(ctx, limit, offset)
	if err != nil {
		return nil, WrapError(ErrorTypeInternal, "failed to list documents", err)
	}
	return docs, nil
}

// Delete removes a document, its chunks, its index entries, and its
// stored original.
func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.txManager.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		if err := s.repos.Chunks.DeleteByDocumentID(txCtx, id); err != nil {
			return err
		}
		return s.repos.Documents.Delete(txCtx, id)
	})
	if err != nil {
		return WrapError(ErrorTypeInternal, "failed to delete document", err)
	}

	if err := s.index.DeleteDocument(ctx, id.String()); err != nil {
		s.logger.Warn("failed to remove document from index", zap.Error(err))
	}
	if filename, ok := doc.Metadata["filename"].(string); ok && filename != "" {
		if err := s.store.Delete(ctx, s.objectKey(id, filename)); err != nil {
			s.logger.Warn("failed to remove stored original", zap.Error(err))
		}
	}

	s.logger.Info("document deleted", zap.String("document_id", id.String()))
	return nil
}

// Stats aggregates corpus statistics.
func (s *DocumentService) Stats(ctx context.Context) (*repositories.DocumentStats, error) {
	stats, err := s.repos.Documents.Stats(ctx)
	if err != nil {
		return nil, WrapError(ErrorTypeInternal, "failed to aggregate document stats", err)
	}
	return stats, nil
}

// InitializeKnowledgeBase ingests the configured seed document once.
// Re-running against an already seeded corpus is a no-op.
func (s *DocumentService) InitializeKnowledgeBase(ctx context.Context) (*models.Document, error) {
	if _, err := s.repos.Documents.GetByTitle(ctx, s.kb.Title); err == nil {
		s.logger.Info("knowledge base already initialized", zap.String("title", s.kb.Title))
		return nil, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, WrapError(ErrorTypeInternal, "failed to check knowledge base", err)
	}

	content, err := os.ReadFile(s.kb.Path)
	if err != nil {
		return nil, WrapError(ErrorTypeInternal, fmt.Sprintf("failed to read knowledge base file %s", s.kb.Path), err)
	}

	return s.Ingest(ctx, UploadRequest{
		Title:    s.kb.Title,
		Filename: filepath.Base(s.kb.Path),
		Content:  content,
	})
}

// HydrateIndex rebuilds the in-memory vector index from stored embeddings.
// Called once at startup before the server accepts questions.
func (s *DocumentService) HydrateIndex(ctx context.Context) error {
	embeddings, err := s.repos.Chunks.ListEmbeddings(ctx)
	if err != nil {
		return WrapError(ErrorTypeInternal, "failed to load stored embeddings", err)
	}
	if len(embeddings) == 0 {
		s.logger.Info("no stored embeddings, index starts empty")
		return nil
	}

	entries := make([]vectorindex.Entry, len(embeddings))
	for i, e := range embeddings {
		entries[i] = vectorindex.Entry{
			ChunkID:    e.ChunkID.String(),
			DocumentID: e.DocumentID.String(),
			Language:   e.Language,
			Vector:     e.Embedding,
		}
	}
	if err := s.index.Upsert(ctx, entries); err != nil {
		return WrapError(ErrorTypeIndex, "failed to hydrate vector index", err)
	}

	s.logger.Info("vector index hydrated", zap.Int("entries", len(entries)))
	return nil
}

func (s *DocumentService) validateUpload(req UploadRequest) error {
	if int64(len(req.Content)) > s.upload.MaxUploadSize {
		return ErrFileTooLarge.
			WithDetail("size", len(req.Content)).
			WithDetail("max_size", s.upload.MaxUploadSize)
	}

	ext := strings.ToLower(filepath.Ext(req.Filename))
	for _, allowed := range s.upload.AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return ErrUnsupportedFile.
		WithDetail("extension", ext).
		WithDetail("allowed", s.upload.AllowedExtensions)
}

func (s *DocumentService) objectKey(docID uuid.UUID, filename string) string {
	return fmt.Sprintf("documents/%s/%s", docID, filepath.Base(filename))
}

