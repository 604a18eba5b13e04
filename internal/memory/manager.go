package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/models"
)

// Turn is one conversational exchange entry held in a chat's short-term
// buffer. The buffer is stored as a JSON array on the chat row so a chat's
// recent context survives process restarts without an extra query.
type Turn struct {
	Role      models.MessageRole `json:"role"`
	Content   string             `json:"content"`
	Timestamp time.Time          `json:"timestamp"`
}

// HistorySource loads older messages when the short-term buffer is empty,
// newest first.
type HistorySource interface {
	RecentMessages(ctx context.Context, chatID uuid.UUID, limit int) ([]models.Message, error)
}

// Manager maintains per-chat conversational context: a bounded FIFO buffer
// of recent turns plus a character-budgeted context string for prompts.
type Manager struct {
	capacity      int
	historyLimit  int
	contextBudget int
	history       HistorySource
	logger        *zap.Logger
}

// NewManager creates a Manager. capacity bounds the short-term buffer,
// historyLimit bounds the database fallback, and contextBudget caps the
// rendered context in characters.
func NewManager(capacity, historyLimit, contextBudget int, history HistorySource, logger *zap.Logger) *Manager {
	return &Manager{
		capacity:      capacity,
		historyLimit:  historyLimit,
		contextBudget: contextBudget,
		history:       history,
		logger:        logger,
	}
}

// Decode parses a chat's stored short-term buffer. A nil or empty blob
// decodes to no turns; a corrupt blob is treated the same way rather than
// failing the conversation.
func (m *Manager) Decode(raw json.RawMessage) []Turn {
	if len(raw) == 0 {
		return nil
	}
	var turns []Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		m.logger.Warn("short-term memory blob is corrupt, resetting", zap.Error(err))
		return nil
	}
	return turns
}

// Append adds turns to the buffer, evicting the oldest entries once the
// buffer exceeds capacity, and returns the re-encoded blob.
func (m *Manager) Append(raw json.RawMessage, turns ...Turn) (json.RawMessage, error) {
	buffer := append(m.Decode(raw), turns...)
	if m.capacity > 0 && len(buffer) > m.capacity {
		buffer = buffer[len(buffer)-m.capacity:]
	}
	encoded, err := json.Marshal(buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to encode short-term memory: %w", err)
	}
	return encoded, nil
}

// BuildContext renders the conversation context for a prompt. When
// includeHistory is false the answer is generated statelessly and the
// context is empty. When the short-term buffer is empty (fresh process,
// old chat) the recent messages are loaded from the history source
// instead.
func (m *Manager) BuildContext(ctx context.Context, chat *models.Chat, includeHistory bool) (string, error) {
	if !includeHistory || chat == nil {
		return "", nil
	}

	turns := m.Decode(chat.ShortTermMemory)
	if len(turns) == 0 && m.history != nil {
		messages, err := m.history.RecentMessages(ctx, chat.ID, m.historyLimit)
		if err != nil {
			return "", fmt.Errorf("failed to load chat history: %w", err)
		}
		// RecentMessages is newest first; turns render oldest first.
		for i := len(messages) - 1; i >= 0; i-- {
			turns = append(turns, Turn{
				Role:      messages[i].Role,
				Content:   messages[i].Content,
				Timestamp: messages[i].CreatedAt,
			})
		}
	}

	return m.render(turns), nil
}

// render formats turns oldest first, dropping the oldest complete turns
// until the result fits the character budget.
func (m *Manager) render(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}

	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = fmt.Sprintf("%s: %s", roleLabel(t.Role), t.Content)
	}

	start := 0
	for start < len(lines) {
		rendered := strings.Join(lines[start:], "\n")
		if m.contextBudget <= 0 || len(rendered) <= m.contextBudget {
			return rendered
		}
		start++
	}
	return ""
}

func roleLabel(role models.MessageRole) string {
	if role == models.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
