package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/nazargulov/pb-joke-bot/internal/content"
	"github.com/nazargulov/pb-joke-bot/internal/trigger"
)

// NewTriggerHandler returns the bot's default handler. Every incoming
// message lands in the archive; messages carrying a trigger phrase get
// an explanation reply.
func NewTriggerHandler(deps *HandlerDeps, matcher *trigger.Matcher) bot.HandlerFunc {
	return triggerHandler{deps: deps, matcher: matcher}.Handle
}

type triggerHandler struct {
	deps    *HandlerDeps
	matcher *trigger.Matcher
}

func (h triggerHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "trigger")

	msg := update.Message
	if msg == nil {
		return
	}
	// The bot's own replies come back as updates in some setups; never
	// answer ourselves.
	if msg.From != nil && msg.From.ID == h.deps.Config.Telegram.BotID {
		return
	}

	ArchiveMessage(ctx, h.deps, msg)

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if !h.matcher.Match(text) {
		return
	}

	log.InfoContext(ctx, "Trigger phrase detected",
		"chat_id", msg.Chat.ID, "message_id", msg.ID)

	resolved := h.deps.Resolver.Resolve(ctx, msg, text)
	if resolved.Kind == content.KindNone {
		SendReply(ctx, b, h.deps, msg.Chat.ID, msg.ID, h.deps.Config.Messages.TriggerNotFound)
		return
	}

	SendReply(ctx, b, h.deps, msg.Chat.ID, msg.ID, h.deps.Config.Messages.TriggerAck)

	answer := Explain(ctx, h.deps, resolved)
	if answer == "" {
		answer = h.deps.Config.Messages.GeneralError
	}
	SendReply(ctx, b, h.deps, msg.Chat.ID, msg.ID, "🔍 "+answer)
}
