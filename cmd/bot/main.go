// Package main contains the entrypoint for the explainer bot.
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

	"github.com/nazargulov/pb-joke-bot/internal/bot"
	"github.com/nazargulov/pb-joke-bot/internal/bot/handlers"
	"github.com/nazargulov/pb-joke-bot/internal/bot/tasks"
	"github.com/nazargulov/pb-joke-bot/internal/config"
	"github.com/nazargulov/pb-joke-bot/internal/content"
	"github.com/nazargulov/pb-joke-bot/internal/database"
	"github.com/nazargulov/pb-joke-bot/internal/logger"
	"github.com/nazargulov/pb-joke-bot/internal/openai"
	"github.com/nazargulov/pb-joke-bot/internal/telegram"
	"github.com/nazargulov/pb-joke-bot/internal/trigger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components, handles
// graceful shutdown, and returns an exit code.
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}
	if err := cfg.ValidateForBot(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	explainer, err := openai.NewClient(cfg.OpenAI, log)
	if err != nil {
		log.Error("Failed to initialize OpenAI client", "error", err)
		return 1
	}

	matcher := trigger.New(cfg.Triggers)

	hDeps := &handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Store:     store,
		Explainer: explainer,
	}
	tDeps := tasks.TaskDeps{
		Logger: log,
		Config: cfg,
		Store:  store,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewTriggerHandler(hDeps, matcher)),
	}
	tg, err := telegram.NewBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	me, err := tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	cfg.Telegram.BotID = me.ID
	cfg.Telegram.BotUsername = me.Username
	log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)

	hDeps.Resolver = content.NewResolver(telegram.NewBotDownloader(tg, log), matcher, log)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, cfg, db, store, explainer, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
