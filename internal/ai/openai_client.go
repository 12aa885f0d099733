package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stepwork/stepbot/internal/config"
	"github.com/stepwork/stepbot/internal/text"
)

// openAIClient calls an OpenAI-compatible chat completions endpoint over
// plain HTTP.
type openAIClient struct {
	httpClient  *http.Client
	model       string
	baseURL     string
	apiToken    string
	temperature float32
	logger      *slog.Logger
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float32         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIChatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func newOpenAIClient(cfg *config.Config, logger *slog.Logger) (*openAIClient, error) {
	if cfg.AIToken == "" {
		return nil, fmt.Errorf("OpenAI API token is required")
	}

	return &openAIClient{
		httpClient:  &http.Client{Timeout: cfg.AITimeout},
		model:       cfg.AIModel,
		baseURL:     strings.TrimSuffix(cfg.AIBaseURL, "/"),
		apiToken:    cfg.AIToken,
		temperature: cfg.AITemperature,
		logger:      logger.With("component", "openai_client"),
	}, nil
}

// Generate calls the chat completions endpoint with the given message list.
func (c *openAIClient) Generate(ctx context.Context, messages []Message) (string, error) {
	apiMessages := make([]openAIMessage, 0, len(messages))
	for _, m := range messages {
		apiMessages = append(apiMessages, openAIMessage{Role: m.Role, Content: m.Content})
	}

	apiRequest := openAIChatCompletionRequest{
		Model:       c.model,
		Messages:    apiMessages,
		Temperature: c.temperature,
		MaxTokens:   2048,
	}
	reqBodyBytes, err := json.Marshal(apiRequest)
	if err != nil {
		return "", fmt.Errorf("failed to marshal OpenAI request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create OpenAI request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	apiStart := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close OpenAI response body", "error", err)
		}
	}()

	respBodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read OpenAI response body: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		c.logger.ErrorContext(ctx, "OpenAI API error", "status_code", httpResp.StatusCode, "response", string(respBodyBytes))
		statusErr := &StatusError{Code: httpResp.StatusCode}
		var errResp openAIChatCompletionResponse
		if json.Unmarshal(respBodyBytes, &errResp) == nil && errResp.Error != nil {
			statusErr.Message = errResp.Error.Message
		}
		return "", statusErr
	}

	var apiResponse openAIChatCompletionResponse
	if err := json.Unmarshal(respBodyBytes, &apiResponse); err != nil {
		c.logger.ErrorContext(ctx, "Failed to unmarshal OpenAI response", "error", err)
		return "", fmt.Errorf("failed to parse OpenAI response: %w", ErrEmptyResponse)
	}

	if apiResponse.Error != nil {
		return "", fmt.Errorf("OpenAI API returned an error: %s (%s): %w",
			apiResponse.Error.Message, apiResponse.Error.Type, ErrEmptyResponse)
	}

	if len(apiResponse.Choices) == 0 || strings.TrimSpace(apiResponse.Choices[0].Message.Content) == "" {
		c.logger.WarnContext(ctx, "OpenAI response contained no choices or empty content", "response_id", apiResponse.ID)
		return "", ErrEmptyResponse
	}

	c.logger.InfoContext(ctx, "OpenAI response generated",
		"api_ms", time.Since(apiStart).Milliseconds(),
		"tokens", apiResponse.Usage.TotalTokens)

	return text.Sanitize(apiResponse.Choices[0].Message.Content), nil
}
