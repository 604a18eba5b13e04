package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/config"
)

// OllamaEmbedder talks to an Ollama-compatible embeddings endpoint over
// HTTP. The multilingual model behind it is what makes Bengali and English
// queries land in the same vector space.
type OllamaEmbedder struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
	logger     *zap.Logger
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaEmbedder creates an embedder from configuration.
func NewOllamaEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Dimension returns the configured vector dimension.
func (e *OllamaEmbedder) Dimension() int {
	return e.dimension
}

// Encode embeds a single text.
func (e *OllamaEmbedder) Encode(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	body, err := json.Marshal(embeddingRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &Failure{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &Failure{Err: fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, string(payload))}
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Failure{Err: fmt.Errorf("failed to decode embedding response: %w", err)}
	}

	if len(parsed.Embedding) != e.dimension {
		return nil, &Failure{Err: fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(parsed.Embedding), e.dimension)}
	}

	e.logger.Debug("text embedded",
		zap.Int("text_len", len(text)),
		zap.Duration("latency", time.Since(start)))

	return parsed.Embedding, nil
}

// EncodeBatch embeds each text in order. The embeddings endpoint accepts one
// prompt per call, so the batch is a sequential loop; the result index i
// always corresponds to texts[i].
func (e *OllamaEmbedder) EncodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := e.Encode(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
