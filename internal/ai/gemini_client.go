package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/stepwork/stepbot/internal/config"
	"github.com/stepwork/stepbot/internal/text"
)

// geminiClient calls the Gemini API through the official genai SDK.
type geminiClient struct {
	genaiClient *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      *slog.Logger
}

func newGeminiClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*geminiClient, error) {
	if cfg.AIToken == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.AIToken,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiClient{
		genaiClient: gi,
		model:       cfg.AIModel,
		temperature: cfg.AITemperature,
		timeout:     cfg.AITimeout,
		logger:      logger.With("component", "gemini_client"),
	}, nil
}

// Generate sends the message list to Gemini. System messages become the
// system instruction; assistant turns map to the "model" role.
func (c *geminiClient) Generate(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contentConfig := &genai.GenerateContentConfig{
		Temperature: &c.temperature,
	}

	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			contentConfig.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: m.Content}},
			}
		case RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}

	apiStart := time.Now()
	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.model, contents, contentConfig)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			c.logger.ErrorContext(ctx, "Gemini API error", "code", apiErr.Code, "error", err)
			return "", &StatusError{Code: apiErr.Code, Message: apiErr.Message}
		}
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}

	result := strings.TrimSpace(resp.Text())
	if result == "" {
		c.logger.WarnContext(ctx, "Gemini response contained no text")
		return "", ErrEmptyResponse
	}

	c.logger.InfoContext(ctx, "Gemini response generated", "api_ms", time.Since(apiStart).Milliseconds())
	return text.Sanitize(result), nil
}
