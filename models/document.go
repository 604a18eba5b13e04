package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Language classifies text as Bengali, English, or a mix of both scripts.
type Language string

const (
	LanguageBengali Language = "bn"
	LanguageEnglish Language = "en"
	LanguageMixed   Language = "mixed"
)

// Valid reports whether the language is one of the supported values.
func (l Language) Valid() bool {
	switch l {
	case LanguageBengali, LanguageEnglish, LanguageMixed:
		return true
	}
	return false
}

// Document represents an ingested source document. Content is normalized at
// ingestion time and immutable afterwards; deleting a document cascades to
// its chunks.
type Document struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Title     string          `json:"title" db:"title"`
	Content   string          `json:"content" db:"content"`
	Language  Language        `json:"language" db:"language"`
	WordCount int             `json:"word_count" db:"word_count"`
	PageCount int             `json:"page_count" db:"page_count"`
	Metadata  Metadata        `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// NewDocument creates a Document with a fresh ID and timestamps.
func NewDocument(title, content string, language Language) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:        uuid.New(),
		Title:     title,
		Content:   content,
		Language:  language,
		Metadata:  Metadata{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Chunk is a bounded segment of a document carrying its own embedding
// vector. Chunk indexes are monotonically increasing within a document and
// the embedding dimension is constant across the whole index.
type Chunk struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DocumentID uuid.UUID `json:"document_id" db:"document_id"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Content    string    `json:"content" db:"content"`
	CharCount  int       `json:"char_count" db:"char_count"`
	Embedding  []float64 `json:"-" db:"embedding"`
	Metadata   Metadata  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ChunkWithDocument joins a chunk with the owning document's display fields.
type ChunkWithDocument struct {
	Chunk
	DocumentTitle    string   `json:"document_title"`
	DocumentLanguage Language `json:"document_language"`
}

// Metadata is a tagged key-value blob attached to documents and chunks. The
// minimal schema is "page" (number) and "language" (string); everything else
// is an open extension area validated only at the boundary.
type Metadata map[string]interface{}

// Page returns the page number recorded in the metadata, or 0 when absent.
func (m Metadata) Page() int {
	switch v := m["page"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Lang returns the language tag recorded in the metadata, or "".
func (m Metadata) Lang() string {
	if s, ok := m["language"].(string); ok {
		return s
	}
	return ""
}

// Validate checks the minimal metadata schema at the ingestion boundary.
func (m Metadata) Validate() error {
	if v, ok := m["page"]; ok {
		switch v.(type) {
		case float64, int:
		default:
			return fmt.Errorf("metadata: page must be a number, got %T", v)
		}
	}
	if v, ok := m["language"]; ok {
		s, isString := v.(string)
		if !isString {
			return fmt.Errorf("metadata: language must be a string, got %T", v)
		}
		if s != "" && !Language(s).Valid() {
			return fmt.Errorf("metadata: unknown language %q", s)
		}
	}
	return nil
}

// Value marshals the metadata for storage in a jsonb column.
func (m Metadata) Value() (interface{}, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// ScanMetadata decodes a jsonb column into Metadata. Null and empty values
// decode to an empty map.
func ScanMetadata(src []byte) (Metadata, error) {
	m := Metadata{}
	if len(src) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(src, &m); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return m, nil
}
