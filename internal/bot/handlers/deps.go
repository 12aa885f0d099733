// Package handlers implements the dialogue layer: one default update
// handler that classifies each inbound Telegram update and dispatches it
// against the user's persisted conversation state.
package handlers

import (
	"log/slog"

	"github.com/stepwork/stepbot/internal/ai"
	"github.com/stepwork/stepbot/internal/category"
	"github.com/stepwork/stepbot/internal/config"
	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/sender"
	"github.com/stepwork/stepbot/internal/session"
)

// HandlerDeps provides dependencies for the dialogue layer.
type HandlerDeps struct {
	Logger       *slog.Logger
	Config       *config.Config
	Store        database.Store
	Sessions     *session.Manager
	Categories   *category.Manager
	Orchestrator *ai.Orchestrator
	Sender       sender.Sender
	BotUsername  string
}
