// Package main contains the chat exporter. It writes one chat's recent
// messages, from the bot update queue or the local archive, as a JSON
// array and a JSONL vector file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nazargulov/pb-joke-bot/internal/config"
	"github.com/nazargulov/pb-joke-bot/internal/database"
	"github.com/nazargulov/pb-joke-bot/internal/export"
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
	source := flag.String("source", "updates", "Message source: updates (pending bot updates) or archive (local database)")
	base := flag.String("out", "chat_export", "Base name for the output files")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}
	if err := cfg.ValidateForExport(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)

	var messages []export.ChatMessage
	switch *source {
	case "updates":
		messages, err = exportFromUpdates(ctx, cfg, log)
	case "archive":
		messages, err = exportFromArchive(ctx, cfg, log)
	default:
		log.Error("Unknown source", "source", *source)
		return 1
	}
	if err != nil {
		log.Error("Export failed", "source", *source, "error", err)
		return 1
	}

	jsonPath, jsonlPath, err := export.WriteFiles(cfg.Export.OutputDir, *base, messages)
	if err != nil {
		log.Error("Failed to write output files", "error", err)
		return 1
	}

	log.Info("Export finished", "messages", len(messages), "json", jsonPath, "jsonl", jsonlPath)
	fmt.Printf("Экспортировано сообщений: %d\n%s\n%s\n", len(messages), jsonPath, jsonlPath)
	return 0
}

func exportFromUpdates(ctx context.Context, cfg *config.Config, log *slog.Logger) ([]export.ChatMessage, error) {
	tg, err := telegram.NewBot(cfg.Telegram.Token, log)
	if err != nil {
		return nil, err
	}

	fetcher := telegram.NewUpdatesClient(cfg.Telegram.Token, log)
	dl := telegram.NewBotDownloader(tg, log)
	return export.NewUpdatesExporter(fetcher, dl, cfg.Export, log).Export(ctx)
}

func exportFromArchive(ctx context.Context, cfg *config.Config, log *slog.Logger) ([]export.ChatMessage, error) {
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	defer database.CloseDB(db)

	store := database.NewStore(db, log)
	return export.NewArchiveExporter(store, cfg.Export, log).Export(ctx)
}
