package config_test

import (
	"errors"
	"testing"

	"github.com/nazargulov/pb-joke-bot/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.Level)
	}
	if cfg.OpenAI.Model != config.DefaultOpenAIModel {
		t.Errorf("model = %q, want %q", cfg.OpenAI.Model, config.DefaultOpenAIModel)
	}
	if cfg.Export.Limit != config.DefaultExportLimit {
		t.Errorf("export limit = %d, want %d", cfg.Export.Limit, config.DefaultExportLimit)
	}
	if cfg.Export.HistoryLimit != config.DefaultExportHistoryLimit {
		t.Errorf("history limit = %d, want %d", cfg.Export.HistoryLimit, config.DefaultExportHistoryLimit)
	}
	if cfg.Database.RetentionDays != config.DefaultRetentionDays {
		t.Errorf("retention = %d, want %d", cfg.Database.RetentionDays, config.DefaultRetentionDays)
	}
	if len(cfg.Triggers) == 0 {
		t.Error("default triggers are empty")
	}
	if cfg.Messages.Welcome == "" || cfg.Messages.GeneralError == "" {
		t.Error("default messages are empty")
	}
}

func TestLoadLegacyEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123456:test-token")
	t.Setenv("SHOW_CHAT_ID", "true")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TELEGRAM_API_ID", "12345")
	t.Setenv("TELEGRAM_API_HASH", "abcdef")
	t.Setenv("TELEGRAM_PHONE", "+79990001122")
	t.Setenv("CHAT_ID", "-1001234567890")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Telegram.Token != "123456:test-token" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if !cfg.Telegram.ShowChatID {
		t.Error("show_chat_id not picked up")
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.OpenAI.APIKey)
	}
	if cfg.MTProto.APIID != 12345 || cfg.MTProto.APIHash != "abcdef" {
		t.Errorf("mtproto = %+v", cfg.MTProto)
	}
	if cfg.MTProto.Phone != "+79990001122" {
		t.Errorf("phone = %q", cfg.MTProto.Phone)
	}
	if cfg.Export.ChatID != -1001234567890 {
		t.Errorf("chat_id = %d", cfg.Export.ChatID)
	}
}

func TestLoadPrefixedEnv(t *testing.T) {
	t.Setenv("BOT_DATABASE_PATH", "/tmp/other.db")
	t.Setenv("BOT_LOG_LEVEL", "debug")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Path != "/tmp/other.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestSectionedValidation(t *testing.T) {
	env := map[string]string{
		"BOT_TOKEN":         "123456:test-token",
		"OPENAI_API_KEY":    "sk-test",
		"TELEGRAM_API_ID":   "12345",
		"TELEGRAM_API_HASH": "abcdef",
		"TELEGRAM_PHONE":    "+79990001122",
		"CHAT_ID":           "-100200300",
	}

	tests := []struct {
		name     string
		drop     string
		validate func(*config.Config) error
		wantErr  bool
	}{
		{
			name:     "bot with full env",
			validate: (*config.Config).ValidateForBot,
		},
		{
			name:     "bot without token",
			drop:     "BOT_TOKEN",
			validate: (*config.Config).ValidateForBot,
			wantErr:  true,
		},
		{
			name:     "bot without openai key",
			drop:     "OPENAI_API_KEY",
			validate: (*config.Config).ValidateForBot,
			wantErr:  true,
		},
		{
			name:     "export with full env",
			validate: (*config.Config).ValidateForExport,
		},
		{
			name:     "export without chat id",
			drop:     "CHAT_ID",
			validate: (*config.Config).ValidateForExport,
			wantErr:  true,
		},
		{
			name:     "history export with full env",
			validate: (*config.Config).ValidateForHistoryExport,
		},
		{
			name:     "history export without api hash",
			drop:     "TELEGRAM_API_HASH",
			validate: (*config.Config).ValidateForHistoryExport,
			wantErr:  true,
		},
		{
			name:     "group watch with full env",
			validate: (*config.Config).ValidateForGroupWatch,
		},
		{
			name:     "group watch without token",
			drop:     "BOT_TOKEN",
			validate: (*config.Config).ValidateForGroupWatch,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range env {
				if key == tt.drop {
					t.Setenv(key, "")
					continue
				}
				t.Setenv(key, value)
			}

			cfg, err := config.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			err = tt.validate(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error, got nil")
				}
				if !errors.Is(err, config.ErrConfiguration) {
					t.Errorf("error is not ErrConfiguration: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("validation failed: %v", err)
			}
		})
	}
}
