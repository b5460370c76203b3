package handlers

import (
	"log/slog"

	"github.com/nazargulov/pb-joke-bot/internal/config"
	"github.com/nazargulov/pb-joke-bot/internal/content"
	"github.com/nazargulov/pb-joke-bot/internal/database"
	"github.com/nazargulov/pb-joke-bot/internal/openai"
)

// HandlerDeps provides dependencies for Telegram message handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Explainer openai.Client
	Resolver  *content.Resolver
}
