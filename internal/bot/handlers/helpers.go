package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/nazargulov/pb-joke-bot/internal/content"
	"github.com/nazargulov/pb-joke-bot/internal/database"
)

const (
	aiProcessingTimeout = 2 * time.Minute
	sendMessageTimeout  = 10 * time.Second
	dbSaveTimeout       = 5 * time.Second
)

// SendReply sends text as a reply to a message. When show_chat_id is
// enabled the chat ID is appended so group admins can copy it.
func SendReply(ctx context.Context, b *bot.Bot, deps *HandlerDeps, chatID int64, replyTo int, text string) {
	log := deps.Logger.With("handler", "reply")
	if b == nil || chatID == 0 || replyTo <= 0 {
		log.ErrorContext(ctx, "Invalid parameters to SendReply", "chat_id", chatID, "reply_to", replyTo)
		return
	}
	if text == "" {
		text = deps.Config.Messages.GeneralError
	}
	if deps.Config.Telegram.ShowChatID {
		text = fmt.Sprintf("%s\n\n(chat_id: %d)", text, chatID)
	}
	if ctx.Err() != nil {
		log.ErrorContext(ctx, "Context cancelled before sending reply", "error", ctx.Err())
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()
	sent, err := b.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            text,
		ReplyParameters: &models.ReplyParameters{MessageID: replyTo},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
		return
	}
	log.DebugContext(ctx, "Sent reply", "chat_id", chatID, "message_id", sent.ID)

	// The bot's own replies go into the archive as well.
	if deps.Config.Telegram.BotID == 0 {
		log.WarnContext(ctx, "Bot ID unknown, skipping reply archival")
		return
	}
	row := &database.Message{
		ChatID:      chatID,
		MessageID:   int64(sent.ID),
		ChatTitle:   sent.Chat.Title,
		UserID:      sql.NullInt64{Int64: deps.Config.Telegram.BotID, Valid: true},
		Username:    sql.NullString{String: deps.Config.Telegram.BotUsername, Valid: deps.Config.Telegram.BotUsername != ""},
		Text:        text,
		MessageType: "text",
		ReplyToID:   sql.NullInt64{Int64: int64(replyTo), Valid: true},
		Timestamp:   time.Now().UTC(),
	}
	SaveMessageWithRetry(ctx, deps, row)
}

// ArchiveMessage converts an incoming Telegram message to an archive
// row and saves it with retries.
func ArchiveMessage(ctx context.Context, deps *HandlerDeps, msg *models.Message) {
	if msg == nil {
		return
	}

	row := &database.Message{
		ChatID:      msg.Chat.ID,
		MessageID:   int64(msg.ID),
		ChatTitle:   msg.Chat.Title,
		Text:        msg.Text,
		MessageType: "text",
		Timestamp:   time.Unix(int64(msg.Date), 0).UTC(),
	}
	if row.Text == "" {
		row.Text = msg.Caption
	}
	if msg.From != nil {
		row.UserID = sql.NullInt64{Int64: msg.From.ID, Valid: true}
		if msg.From.Username != "" {
			row.Username = sql.NullString{String: msg.From.Username, Valid: true}
		}
		fullName := msg.From.FirstName
		if msg.From.LastName != "" {
			fullName += " " + msg.From.LastName
		}
		if fullName != "" {
			row.FullName = sql.NullString{String: fullName, Valid: true}
		}
	}
	if msg.ReplyToMessage != nil {
		row.ReplyToID = sql.NullInt64{Int64: int64(msg.ReplyToMessage.ID), Valid: true}
	}

	switch {
	case len(msg.Photo) > 0:
		row.MessageType = "photo"
		row.HasMedia = true
	case msg.Document != nil:
		row.MessageType = "document"
		row.HasMedia = true
	case msg.Sticker != nil:
		row.MessageType = "sticker"
		row.HasMedia = true
	}

	SaveMessageWithRetry(ctx, deps, row)
}

// SaveMessageWithRetry attempts to save an archive row, retrying with
// linear backoff.
func SaveMessageWithRetry(ctx context.Context, deps *HandlerDeps, msg *database.Message) {
	log := deps.Logger.With("handler", "archive")
	const maxRetries = 3
	var err error

	for i := range [maxRetries]struct{}{} {
		if ctx.Err() != nil {
			log.WarnContext(ctx, "Context cancelled, aborting message save",
				"error", ctx.Err(), "chat_id", msg.ChatID, "attempt", i+1)
			return
		}

		dbCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
		err = deps.Store.SaveMessage(dbCtx, msg)
		cancel()

		if err == nil {
			log.DebugContext(ctx, "Message archived", "chat_id", msg.ChatID, "message_id", msg.MessageID)
			return
		}

		log.ErrorContext(ctx, "Failed to archive message, retrying",
			"error", err, "chat_id", msg.ChatID, "attempt", i+1)
		time.Sleep(time.Duration(500*(i+1)) * time.Millisecond)
	}

	log.ErrorContext(ctx, "Failed to archive message after retries",
		"error", err, "chat_id", msg.ChatID)
}

// Explain resolves the explanation for previously extracted content.
// It never fails; remote errors degrade to the apology string inside
// the Explainer.
func Explain(ctx context.Context, deps *HandlerDeps, c content.Content) string {
	aiCtx, cancel := context.WithTimeout(ctx, aiProcessingTimeout)
	defer cancel()

	switch c.Kind {
	case content.KindImage:
		return deps.Explainer.ExplainImage(aiCtx, c.Data, c.MIME)
	case content.KindText:
		return deps.Explainer.ExplainText(aiCtx, c.Text)
	default:
		return ""
	}
}
