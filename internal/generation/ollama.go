package generation

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

// OllamaClient generates answers through a local Ollama server. It exists
// so the pipeline runs fully offline when no Gemini key is configured.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient creates an Ollama-backed generator from configuration.
func NewOllamaClient(cfg config.OllamaConfig, logger *zap.Logger) *OllamaClient {
	return &OllamaClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Name returns the generator name used for registry lookups.
func (c *OllamaClient) Name() string {
	return "ollama"
}

// Generate sends the prompt with streaming disabled and returns the full
// response text.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Failure{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &Failure{Err: fmt.Errorf("ollama returned %d: %s", resp.StatusCode, string(payload))}
	}

	var parsed ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &Failure{Err: fmt.Errorf("failed to decode ollama response: %w", err)}
	}

	c.logger.Debug("ollama generation complete",
		zap.Int("prompt_len", len(prompt)),
		zap.Duration("latency", time.Since(start)))

	return parsed.Response, nil
}
