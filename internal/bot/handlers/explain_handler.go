package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/nazargulov/pb-joke-bot/internal/content"
)

// NewExplainHandler returns a handler for the /explain command. The
// command explains a photo attached to the command message or its
// reply, or the text passed as arguments.
func NewExplainHandler(deps *HandlerDeps) bot.HandlerFunc {
	return explainHandler{deps}.Handle
}

type explainHandler struct {
	deps *HandlerDeps
}

func (h explainHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "explain")

	msg := update.Message
	if msg == nil {
		log.WarnContext(ctx, "Explain handler received update with nil message", "update_id", update.ID)
		return
	}

	ArchiveMessage(ctx, h.deps, msg)

	log.InfoContext(ctx, "Handling /explain command", "chat_id", msg.Chat.ID, "message_id", msg.ID)

	resolved := h.deps.Resolver.Resolve(ctx, msg, h.commandArgs(msg.Text))
	if resolved.Kind == content.KindNone {
		SendReply(ctx, b, h.deps, msg.Chat.ID, msg.ID, h.deps.Config.Messages.ImageNotFound)
		return
	}

	SendReply(ctx, b, h.deps, msg.Chat.ID, msg.ID, h.deps.Config.Messages.Analyzing)

	answer := Explain(ctx, h.deps, resolved)
	if answer == "" {
		answer = h.deps.Config.Messages.GeneralError
	}
	SendReply(ctx, b, h.deps, msg.Chat.ID, msg.ID, "🔍 "+answer)
}

// commandArgs strips the command token and an optional @botname mention
// from the message text.
func (h explainHandler) commandArgs(text string) string {
	rest, found := strings.CutPrefix(text, "/explain")
	if !found {
		return ""
	}
	if username := h.deps.Config.Telegram.BotUsername; username != "" {
		rest = strings.TrimPrefix(rest, "@"+username)
	}
	return strings.TrimSpace(rest)
}
