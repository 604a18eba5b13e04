package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FeedbackLabel is the user's verdict on an assistant message.
type FeedbackLabel string

const (
	FeedbackHelpful    FeedbackLabel = "helpful"
	FeedbackNotHelpful FeedbackLabel = "not_helpful"
	FeedbackPartial    FeedbackLabel = "partial"
)

// Valid reports whether the label is one of the accepted values.
func (f FeedbackLabel) Valid() bool {
	switch f {
	case FeedbackHelpful, FeedbackNotHelpful, FeedbackPartial:
		return true
	}
	return false
}

// EvaluationRecord stores post-hoc quality scores for exactly one message.
// At most one record exists per message; feedback re-submission overwrites
// the prior label (last write wins).
type EvaluationRecord struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	MessageID    uuid.UUID       `json:"message_id" db:"message_id"`
	Groundedness *float64        `json:"groundedness,omitempty" db:"groundedness"`
	Relevance    *float64        `json:"relevance,omitempty" db:"relevance"`
	UserFeedback *FeedbackLabel  `json:"user_feedback,omitempty" db:"user_feedback"`
	Metadata     json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// NewEvaluationRecord creates an evaluation record for a message.
func NewEvaluationRecord(messageID uuid.UUID) *EvaluationRecord {
	now := time.Now().UTC()
	return &EvaluationRecord{
		ID:        uuid.New(),
		MessageID: messageID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EvaluationStats is a read-only aggregation over stored evaluation records
// and messages within a time window.
type EvaluationStats struct {
	TotalEvaluations     int              `json:"total_evaluations"`
	AvgGroundedness      float64          `json:"avg_groundedness"`
	AvgRelevance         float64          `json:"avg_relevance"`
	FeedbackDistribution map[string]int   `json:"feedback_distribution"`
	ApproachDistribution map[string]int   `json:"approach_distribution"`
	LanguageDistribution map[string]int   `json:"language_distribution"`
	WindowStart          *time.Time       `json:"window_start,omitempty"`
	WindowEnd            *time.Time       `json:"window_end,omitempty"`
}
