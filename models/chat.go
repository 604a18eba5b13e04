package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies who authored a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Approach tags how an answer was produced so downstream consumers can
// distinguish grounded answers from degraded ones.
type Approach string

const (
	ApproachRAG           Approach = "rag"
	ApproachFallback      Approach = "fallback"
	ApproachErrorFallback Approach = "error_fallback"
)

// Chat is a conversation session owned by a single user. ShortTermMemory
// holds the bounded recent-turn buffer as a JSON array, most-recent-last.
type Chat struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	Name            string          `json:"name" db:"name"`
	ShortTermMemory json.RawMessage `json:"-" db:"short_term_memory"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// NewChat creates a chat session titled after the opening query.
func NewChat(userID uuid.UUID, firstQuery string) *Chat {
	now := time.Now().UTC()
	return &Chat{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      ChatTitle(firstQuery),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ChatTitle derives a short display name from the first query: at most six
// words and fifty characters.
func ChatTitle(query string) string {
	words := strings.Fields(query)
	title := strings.Join(words, " ")
	if len(words) > 6 {
		title = strings.Join(words[:6], " ") + "..."
	}
	if len([]rune(title)) > 50 {
		title = string([]rune(title)[:47]) + "..."
	}
	return title
}

// Message is a single turn in a chat. Assistant messages carry optional
// retrieval metadata, a confidence score, and the response latency.
type Message struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ChatID          uuid.UUID       `json:"chat_id" db:"chat_id"`
	Role            MessageRole     `json:"role" db:"role"`
	Content         string          `json:"content" db:"content"`
	RetrievedChunks json.RawMessage `json:"retrieved_chunks,omitempty" db:"retrieved_chunks"`
	Confidence      *float64        `json:"confidence,omitempty" db:"confidence"`
	ResponseTime    *float64        `json:"response_time,omitempty" db:"response_time"`
	RAGMetadata     json.RawMessage `json:"rag_metadata,omitempty" db:"rag_metadata"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// NewMessage creates a message with a fresh ID and timestamp.
func NewMessage(chatID uuid.UUID, role MessageRole, content string) *Message {
	return &Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
