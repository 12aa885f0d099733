// Package main contains the entrypoint for the stepbot Telegram application.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/stepwork/stepbot/internal/ai"
	"github.com/stepwork/stepbot/internal/bot"
	"github.com/stepwork/stepbot/internal/bot/handlers"
	"github.com/stepwork/stepbot/internal/bot/tasks"
	"github.com/stepwork/stepbot/internal/category"
	"github.com/stepwork/stepbot/internal/config"
	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/logger"
	"github.com/stepwork/stepbot/internal/sender"
	"github.com/stepwork/stepbot/internal/session"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all application components, starts the bot, handles
// graceful shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.LogLevel, cfg.LogJSON)
	log.Info("Logger initialized", "level", cfg.LogLevel, "json", cfg.LogJSON)

	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.DBPath, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	// Without an AI token the bot still runs; help requests get a fixed
	// configuration message from the orchestrator.
	var aiClient ai.Client
	if cfg.AIToken == "" {
		log.Warn("No AI token configured, AI help is disabled")
	} else {
		aiClient, err = ai.NewClient(ctx, cfg, log)
		if err != nil {
			log.Error("Failed to initialize AI client", "backend", cfg.AIBackend, "error", err)
			return 1
		}
	}

	sessions := session.NewManager(store, log)
	categories := category.NewManager(store, log)
	orchestrator := ai.NewOrchestrator(aiClient, sessions, log)

	// The router needs the sender and the sender needs the bot instance,
	// while the bot instance needs its default handler at construction.
	// The handler variable is assigned right after wiring, before Start.
	var handleUpdate tgbot.HandlerFunc
	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			handleUpdate(ctx, b, update)
		}),
	}
	tg, err := tgbot.New(cfg.BotToken, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	me, err := tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)

	snd := sender.New(tg, cfg.Messages.AIPartTpl, log)

	handleUpdate = handlers.NewRouter(handlers.HandlerDeps{
		Logger:       log,
		Config:       cfg,
		Store:        store,
		Sessions:     sessions,
		Categories:   categories,
		Orchestrator: orchestrator,
		Sender:       snd,
		BotUsername:  me.Username,
	})

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		Sessions: sessions,
		Sender:   snd,
		Config:   cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
