package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/internal/generation"
	"github.com/abirzishan32/Tukhor-AI/internal/memory"
	"github.com/abirzishan32/Tukhor-AI/internal/prompt"
	"github.com/abirzishan32/Tukhor-AI/internal/retriever"
	"github.com/abirzishan32/Tukhor-AI/internal/textproc"
	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/repositories"
)

// Canned degraded answers, returned when the pipeline itself fails.
const (
	errorAnswerBengali = "দুঃখিত, আপনার প্রশ্নের উত্তর দিতে আমার কিছু সমস্যা হচ্ছে। অনুগ্রহ করে আবার চেষ্টা করুন।"
	errorAnswerEnglish = "Sorry, I'm having trouble answering your question right now. Please try again."
)

const (
	fallbackConfidence = 0.5
	errorConfidence    = 0.1
)

// AskRequest is one question addressed to the pipeline. A nil ChatID
// starts a new chat titled after the question.
type AskRequest struct {
	UserID         uuid.UUID
	ChatID         *uuid.UUID
	Question       string
	IncludeHistory bool
	DocumentIDs    []uuid.UUID
}

// AskResponse is the answer plus everything needed to display and audit it.
type AskResponse struct {
	ChatID          uuid.UUID                  `json:"chat_id"`
	MessageID       uuid.UUID                  `json:"message_id"`
	Answer          string                     `json:"answer"`
	Sources         []retriever.RetrievedChunk `json:"sources"`
	Confidence      float64                    `json:"confidence"`
	ResponseTime    float64                    `json:"response_time"`
	Language        models.Language            `json:"language"`
	ChunksRetrieved int                        `json:"chunks_retrieved"`
	ApproachUsed    models.Approach            `json:"approach_used"`
	CreatedNewChat  bool                       `json:"created_new_chat"`
}

// ragMetadata is persisted on the assistant message for later aggregation.
type ragMetadata struct {
	Approach      models.Approach `json:"approach"`
	ChunksUsed    int             `json:"chunks_used"`
	MaxSimilarity float64         `json:"max_similarity"`
	Language      models.Language `json:"language"`
	Reason        string          `json:"reason,omitempty"`
}

// Evaluator scores answers after the response is sent. Failures are
// logged, never surfaced to the asking user.
type Evaluator interface {
	EvaluateResponse(ctx context.Context, messageID uuid.UUID, query, answer string, sources []string) error
}

// ConfidenceScorer is the cheap synchronous part of answer scoring.
type ConfidenceScorer interface {
	Confidence(chunks []retriever.RetrievedChunk, answer string) float64
}

// RAGService orchestrates the full question-answering pipeline: guard,
// retrieve, assemble, generate, score, persist. One question per chat is
// in flight at a time; different chats proceed concurrently.
type RAGService struct {
	repos     *repositories.Repositories
	txManager repositories.TransactionManager
	retriever *retriever.Retriever
	assembler *prompt.Assembler
	memory    *memory.Manager
	generator generation.Generator
	detector  *textproc.Detector
	scorer    ConfidenceScorer
	evaluator Evaluator
	logger    *zap.Logger

	chatLocks *keyedMutex
}

// NewRAGService creates the pipeline orchestrator. evaluator may be nil to
// disable post-hoc evaluation.
func NewRAGService(
	repos *repositories.Repositories,
	txManager repositories.TransactionManager,
	ret *retriever.Retriever,
	assembler *prompt.Assembler,
	mem *memory.Manager,
	generator generation.Generator,
	detector *textproc.Detector,
	scorer ConfidenceScorer,
	evaluator Evaluator,
	logger *zap.Logger,
) *RAGService {
	return &RAGService{
		repos:     repos,
		txManager: txManager,
		retriever: ret,
		assembler: assembler,
		memory:    mem,
		generator: generator,
		detector:  detector,
		scorer:    scorer,
		evaluator: evaluator,
		logger:    logger,
		chatLocks: newKeyedMutex(),
	}
}

// Ask answers one question. Pipeline failures after the chat is resolved
// degrade to a canned answer instead of erroring, so the turn is always
// recorded.
func (s *RAGService) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if rejection := prompt.CheckQuestion(question); rejection != nil {
		s.logger.Warn("question rejected",
			zap.String("reason", string(rejection.Reason)),
			zap.String("user_id", req.UserID.String()))
		return nil, ErrQuestionRejected.WithDetail("reason", string(rejection.Reason))
	}

	chat, createdNewChat, err := s.resolveChat(ctx, req, question)
	if err != nil {
		return nil, err
	}

	s.chatLocks.Lock(chat.ID.String())
	defer s.chatLocks.Unlock(chat.ID.String())

	start := time.Now()
	language := s.detector.Detect(question)

	conversationContext, err := s.memory.BuildContext(ctx, chat, req.IncludeHistory)
	if err != nil {
		s.logger.Warn("failed to build conversation context", zap.Error(err))
		conversationContext = ""
	}

	answer, meta, sources := s.produceAnswer(ctx, question, conversationContext, language, req.DocumentIDs)

	var confidence float64
	switch meta.Approach {
	case models.ApproachRAG:
		confidence = s.scorer.Confidence(sources, answer)
	case models.ApproachFallback:
		confidence = fallbackConfidence
	default:
		confidence = errorConfidence
	}

	responseTime := time.Since(start).Seconds()

	assistantMsg, err := s.persistTurn(ctx, chat, question, answer, confidence, responseTime, meta, sources)
	if err != nil {
		return nil, WrapError(ErrorTypeInternal, "failed to persist conversation turn", err)
	}

	if s.evaluator != nil && meta.Approach == models.ApproachRAG {
		s.evaluateAsync(assistantMsg.ID, question, answer, sources)
	}

	s.logger.Info("question answered",
		zap.String("chat_id", chat.ID.String()),
		zap.String("approach", string(meta.Approach)),
		zap.String("language", string(language)),
		zap.Int("chunks", len(sources)),
		zap.Float64("confidence", confidence),
		zap.Float64("response_time", responseTime))

	return &AskResponse{
		ChatID:          chat.ID,
		MessageID:       assistantMsg.ID,
		Answer:          answer,
		Sources:         sources,
		Confidence:      confidence,
		ResponseTime:    responseTime,
		Language:        language,
		ChunksRetrieved: len(sources),
		ApproachUsed:    meta.Approach,
		CreatedNewChat:  createdNewChat,
	}, nil
}

// produceAnswer runs retrieve-assemble-generate and decides the approach.
// It never returns an error; failures degrade to the canned answer.
func (s *RAGService) produceAnswer(ctx context.Context, question, conversationContext string, language models.Language, documentIDs []uuid.UUID) (string, ragMetadata, []retriever.RetrievedChunk) {
	meta := ragMetadata{Language: language}

	result, err := s.retriever.Retrieve(ctx, question, retriever.Options{DocumentIDs: documentIDs})
	if err != nil {
		s.logger.Error("retrieval failed", zap.Error(err))
		meta.Approach = models.ApproachErrorFallback
		meta.Reason = "retrieval_failed"
		return errorAnswer(language), meta, nil
	}

	var promptText string
	if len(result.Chunks) > 0 {
		meta.Approach = models.ApproachRAG
		meta.ChunksUsed = len(result.Chunks)
		meta.MaxSimilarity = result.MaxSimilarity()
		promptText = s.assembler.RAGPrompt(question, conversationContext, result.Chunks)
	} else {
		meta.Approach = models.ApproachFallback
		meta.Reason = "no_relevant_context"
		promptText = s.assembler.FallbackPrompt(question)
	}

	answer, err := s.generator.Generate(ctx, promptText)
	if err != nil {
		s.logger.Error("generation failed",
			zap.String("generator", s.generator.Name()),
			zap.Error(err))
		meta.Approach = models.ApproachErrorFallback
		meta.Reason = "generation_failed"
		return errorAnswer(language), meta, nil
	}

	if meta.Approach == models.ApproachRAG {
		return answer, meta, result.Chunks
	}
	return answer, meta, nil
}

// persistTurn stores the user and assistant messages and refreshes the
// chat's short-term memory in one transaction.
func (s *RAGService) persistTurn(ctx context.Context, chat *models.Chat, question, answer string, confidence, responseTime float64, meta ragMetadata, sources []retriever.RetrievedChunk) (*models.Message, error) {
	userMsg := models.NewMessage(chat.ID, models.RoleUser, question)
	assistantMsg := models.NewMessage(chat.ID, models.RoleAssistant, answer)
	assistantMsg.Confidence = &confidence
	assistantMsg.ResponseTime = &responseTime

	metaBlob, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	assistantMsg.RAGMetadata = metaBlob

	if len(sources) > 0 {
		chunksBlob, err := json.Marshal(sources)
		if err != nil {
			return nil, err
		}
		assistantMsg.RetrievedChunks = chunksBlob
	}

	updatedMemory, err := s.memory.Append(chat.ShortTermMemory,
		memory.Turn{Role: models.RoleUser, Content: question, Timestamp: userMsg.CreatedAt},
		memory.Turn{Role: models.RoleAssistant, Content: answer, Timestamp: assistantMsg.CreatedAt},
	)
	if err != nil {
		return nil, err
	}

	err = s.txManager.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		if err := s.repos.Messages.Create(txCtx, userMsg); err != nil {
			return err
		}
		if err := s.repos.Messages.Create(txCtx, assistantMsg); err != nil {
			return err
		}
		return s.repos.Chats.UpdateMemory(txCtx, chat.ID, updatedMemory)
	})
	if err != nil {
		return nil, err
	}

	chat.ShortTermMemory = updatedMemory
	return assistantMsg, nil
}

// resolveChat loads the addressed chat or starts a new one. The second
// return value reports whether a chat was created for this question.
func (s *RAGService) resolveChat(ctx context.Context, req AskRequest, question string) (*models.Chat, bool, error) {
	if req.ChatID == nil {
		chat := models.NewChat(req.UserID, question)
		if err := s.repos.Chats.Create(ctx, chat); err != nil {
			return nil, false, WrapError(ErrorTypeInternal, "failed to create chat", err)
		}
		s.logger.Info("chat created",
			zap.String("chat_id", chat.ID.String()),
			zap.String("user_id", req.UserID.String()))
		return chat, true, nil
	}

	chat, err := s.repos.Chats.GetByID(ctx, *req.ChatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrChatNotFound
		}
		return nil, false, WrapError(ErrorTypeInternal, "failed to load chat", err)
	}
	if chat.UserID != req.UserID {
		return nil, false, ErrChatMismatch
	}
	return chat, false, nil
}

// UserChats lists the user's chat sessions, most recently active first.
func (s *RAGService) UserChats(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Chat, error) {
	if limit <= 0 {
		limit = 20
	}
	chats, err := s.repos.Chats.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, WrapError(ErrorTypeInternal, "failed to list chats", err)
	}
	return chats, nil
}

// ChatHistory returns a chat's messages oldest first, verifying ownership.
func (s *RAGService) ChatHistory(ctx context.Context, userID, chatID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	if _, err := s.ownedChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	messages, err := s.repos.Messages.GetByChatID(ctx, chatID, limit, offset)
	if err != nil {
		return nil, WrapError(ErrorTypeInternal, "failed to load chat history", err)
	}
	return messages, nil
}

// DeleteChat removes a chat and its messages, verifying ownership.
func (s *RAGService) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error {
	if _, err := s.ownedChat(ctx, userID, chatID); err != nil {
		return err
	}
	if err := s.repos.Chats.Delete(ctx, chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrChatNotFound
		}
		return WrapError(ErrorTypeInternal, "failed to delete chat", err)
	}
	s.logger.Info("chat deleted", zap.String("chat_id", chatID.String()))
	return nil
}

// QueryStats aggregates answered questions across all chats.
func (s *RAGService) QueryStats(ctx context.Context) (*repositories.QueryStats, error) {
	stats, err := s.repos.Messages.Stats(ctx)
	if err != nil {
		return nil, WrapError(ErrorTypeInternal, "failed to aggregate query stats", err)
	}
	return stats, nil
}

func (s *RAGService) ownedChat(ctx context.Context, userID, chatID uuid.UUID) (*models.Chat, error) {
	chat, err := s.repos.Chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChatNotFound
		}
		return nil, WrapError(ErrorTypeInternal, "failed to load chat", err)
	}
	if chat.UserID != userID {
		return nil, ErrChatMismatch
	}
	return chat, nil
}

// evaluateAsync scores the answer off the request path. The evaluation
// outlives the request context but stays bounded.
func (s *RAGService) evaluateAsync(messageID uuid.UUID, question, answer string, sources []retriever.RetrievedChunk) {
	texts := make([]string, len(sources))
	for i, c := range sources {
		texts[i] = c.Content
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if err := s.evaluator.EvaluateResponse(ctx, messageID, question, answer, texts); err != nil {
			s.logger.Warn("post-hoc evaluation failed",
				zap.String("message_id", messageID.String()),
				zap.Error(err))
		}
	}()
}

func errorAnswer(language models.Language) string {
	if language == models.LanguageEnglish {
		return errorAnswerEnglish
	}
	return errorAnswerBengali
}
