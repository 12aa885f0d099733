package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stepwork/stepbot/internal/config"
)

// NewClient selects the backend implementation from configuration.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Initializing AI client", "backend", cfg.AIBackend, "model", cfg.AIModel)

	switch cfg.AIBackend {
	case "openai":
		client, err := newOpenAIClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return client, nil
	case "gemini":
		client, err := newGeminiClient(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown AI backend specified: %s", cfg.AIBackend)
	}
}
