// Package main contains the group detector. It keeps a JSON file of
// every group the bot belongs to, scanning pending updates at startup
// and then listening live.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/nazargulov/pb-joke-bot/internal/config"
	"github.com/nazargulov/pb-joke-bot/internal/groups"
	"github.com/nazargulov/pb-joke-bot/internal/logger"
	"github.com/nazargulov/pb-joke-bot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}
	if err := cfg.ValidateForGroupWatch(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)

	store, err := groups.NewStore(cfg.Groups.File, log)
	if err != nil {
		log.Error("Failed to open groups file", "path", cfg.Groups.File, "error", err)
		return 1
	}
	watcher := groups.NewWatcher(store, log)

	// Pending updates first, so groups joined while offline are not
	// missed. The scan does not consume the queue.
	fetcher := telegram.NewUpdatesClient(cfg.Telegram.Token, log)
	if err := watcher.StartupScan(ctx, fetcher); err != nil {
		log.Warn("Startup scan failed, continuing with live updates", "error", err)
	}
	printSummary(store)

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
			watcher.HandleUpdate(ctx, update)
		}),
	}
	tg, err := telegram.NewBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	log.Info("Watching for group membership changes...")
	tg.Start(ctx)

	if ctx.Err() != nil && !errors.Is(ctx.Err(), context.Canceled) {
		return 1
	}

	printSummary(store)
	log.Info("Group watcher stopped.")
	return 0
}

func printSummary(store *groups.Store) {
	active := store.Active()
	fmt.Printf("Активных групп: %d\n", len(active))
	for _, g := range active {
		fmt.Printf("  %d  %s (%s)\n", g.ID, g.Title, g.Type)
	}
}
