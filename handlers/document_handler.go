package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/services"
	"github.com/abirzishan32/Tukhor-AI/utils"
)

// maxUploadBytes caps the multipart request body. The configured per-file
// limit is enforced by the document service.
const maxUploadBytes = 32 << 20

// DocumentService manages the knowledge corpus.
type DocumentService interface {
	// Ingest runs the ingestion pipeline for one uploaded document
	Ingest(ctx context.Context, req services.UploadRequest) (*models.Document, error)

	// Detail retrieves a document together with its chunk count
	Detail(ctx context.Context, id uuid.UUID) (*services.DocumentDetail, error)

	// List retrieves documents with pagination, newest first
	List(ctx context.Context, limit, offset int) ([]*models.Document, error)

	// Delete removes a document, its chunks and its index entries
	Delete(ctx context.Context, id uuid.UUID) error

	// InitializeKnowledgeBase ingests the configured seed document once;
	// returns (nil, nil) when it is already present
	InitializeKnowledgeBase(ctx context.Context) (*models.Document, error)
}

// DocumentHandler handles document management HTTP requests
type DocumentHandler struct {
	documents DocumentService
	logger    *zap.Logger
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documents DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		logger:    logger,
	}
}

// HandleUpload handles POST /v1/documents (multipart form, field "file",
// optional field "title")
func (h *DocumentHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = utils.WriteBadRequest(w, "Multipart field 'file' is required", nil)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			_ = utils.WriteBadRequest(w, "Uploaded file is too large", nil)
			return
		}
		h.logger.Error("failed to read uploaded file", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to read uploaded file")
		return
	}

	doc, err := h.documents.Ingest(r.Context(), services.UploadRequest{
		Title:    r.FormValue("title"),
		Filename: header.Filename,
		Content:  content,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if werr := utils.WriteCreated(w, doc); werr != nil {
		h.logger.Error("failed to write upload response", zap.Error(werr))
	}
}

// InitializeResponse is the response body for POST /v1/documents/initialize
type InitializeResponse struct {
	Status   string           `json:"status"`
	Document *models.Document `json:"document,omitempty"`
}

// HandleInitialize handles POST /v1/documents/initialize
func (h *DocumentHandler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.InitializeKnowledgeBase(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if doc == nil {
		if werr := utils.WriteOK(w, InitializeResponse{Status: "already_exists"}); werr != nil {
			h.logger.Error("failed to write initialize response", zap.Error(werr))
		}
		return
	}

	if werr := utils.WriteCreated(w, InitializeResponse{Status: "created", Document: doc}); werr != nil {
		h.logger.Error("failed to write initialize response", zap.Error(werr))
	}
}

// HandleListDocuments handles GET /v1/documents
func (h *DocumentHandler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 20)
	docs, err := h.documents.List(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if werr := utils.WriteOK(w, docs); werr != nil {
		h.logger.Error("failed to write document list response", zap.Error(werr))
	}
}

// HandleGetDocument handles GET /v1/documents/{id}
func (h *DocumentHandler) HandleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := utils.ParseUUID(chi.URLParam(r, "id"), "document_id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	doc, err := h.documents.Detail(r.Context(), docID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if werr := utils.WriteOK(w, doc); werr != nil {
		h.logger.Error("failed to write document response", zap.Error(werr))
	}
}

// HandleDeleteDocument handles DELETE /v1/documents/{id}
func (h *DocumentHandler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := utils.ParseUUID(chi.URLParam(r, "id"), "document_id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	if err := h.documents.Delete(r.Context(), docID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}
