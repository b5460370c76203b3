// Package main contains the full-history exporter. It signs in as a
// regular Telegram user over MTProto, so it can read history far beyond
// what the bot update queue keeps.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gotd/td/session"
	tdclient "github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"

	"github.com/nazargulov/pb-joke-bot/internal/config"
	"github.com/nazargulov/pb-joke-bot/internal/export"
	"github.com/nazargulov/pb-joke-bot/internal/logger"
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
	if err := cfg.ValidateForHistoryExport(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)

	client := tdclient.NewClient(cfg.MTProto.APIID, cfg.MTProto.APIHash, tdclient.Options{
		SessionStorage: &session.FileStorage{Path: cfg.MTProto.SessionFile},
	})

	flow := auth.NewFlow(
		auth.Constant(cfg.MTProto.Phone, "", auth.CodeAuthenticatorFunc(promptCode)),
		auth.SendCodeOptions{},
	)

	runErr := client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("authorization failed: %w", err)
		}

		self, err := client.Self(ctx)
		if err != nil {
			return fmt.Errorf("failed to load own account: %w", err)
		}
		log.Info("Signed in", "user_id", self.ID, "username", self.Username)

		exporter := export.NewHistoryExporter(client.API(), cfg.Export, log)
		messages, err := exporter.Export(ctx)
		if err != nil {
			return err
		}

		jsonPath, jsonlPath, err := export.WriteFiles(cfg.Export.OutputDir, "chat_history", messages)
		if err != nil {
			return err
		}

		log.Info("History export finished", "messages", len(messages), "json", jsonPath, "jsonl", jsonlPath)
		fmt.Printf("Экспортировано сообщений: %d\n%s\n%s\n", len(messages), jsonPath, jsonlPath)
		return nil
	})
	if runErr != nil {
		log.Error("History export failed", "error", runErr)
		return 1
	}
	return 0
}

// promptCode reads the login code Telegram sends to the account.
func promptCode(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Print("Введите код из Telegram: ")
	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read login code: %w", err)
	}
	return strings.TrimSpace(code), nil
}
