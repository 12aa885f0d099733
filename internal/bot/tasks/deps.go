// Package tasks implements the scheduled batch jobs: the daily-post
// reminder and database maintenance.
package tasks

import (
	"log/slog"

	"github.com/stepwork/stepbot/internal/config"
	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/sender"
	"github.com/stepwork/stepbot/internal/session"
)

// TaskDeps contains the dependencies available to scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Sessions *session.Manager
	Sender   sender.Sender
	Config   *config.Config
}
