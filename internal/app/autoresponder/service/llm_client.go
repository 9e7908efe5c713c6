package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reviewpilot/internal/app/autoresponder/config"
)

// ChatMessage - одно сообщение chat-completions запроса
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions - параметры сэмплирования одного запроса
type CompletionOptions struct {
	Temperature      float64
	MaxTokens        int
	FrequencyPenalty float64
	Timeout          time.Duration
}

// ChatCompleter интерфейс LLM клиента
// Используется для dependency injection и упрощения тестирования
type ChatCompleter interface {
	Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error)
}

// LLMClient - HTTP клиент chat-completions API (DeepSeek-совместимый).
// Отвечает только за транспорт; нормализация ответа - дело вызывающего.
type LLMClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewLLMClient создает новый клиент LLM API
func NewLLMClient(cfg config.LLMConfig) *LLMClient {
	return &LLMClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			// Верхняя граница; точный таймаут задается per-request через opts
			Timeout: 30 * time.Second,
		},
	}
}

type chatCompletionRequest struct {
	Model            string        `json:"model"`
	Messages         []ChatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete выполняет один chat-completions запрос и возвращает текст ответа
func (c *LLMClient) Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(chatCompletionRequest{
		Model:            c.model,
		Messages:         messages,
		Temperature:      opts.Temperature,
		MaxTokens:        opts.MaxTokens,
		FrequencyPenalty: opts.FrequencyPenalty,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("LLM API returned status %d: %s", resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("LLM API returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
