package export

import (
	"context"
	"log/slog"

	"github.com/nazargulov/pb-joke-bot/internal/config"
	"github.com/nazargulov/pb-joke-bot/internal/database"
)

// ArchiveExporter exports messages the bot archived into SQLite while
// it was running. Unlike the update-queue exporter it is not limited to
// the last 24 hours.
type ArchiveExporter struct {
	store database.Store
	cfg   config.ExportConfig
	log   *slog.Logger
}

// NewArchiveExporter wires an exporter over the message archive.
func NewArchiveExporter(store database.Store, cfg config.ExportConfig, log *slog.Logger) *ArchiveExporter {
	if log == nil {
		log = slog.Default()
	}
	return &ArchiveExporter{
		store: store,
		cfg:   cfg,
		log:   log.With("component", "archive_exporter"),
	}
}

// Export returns the archived messages of the configured chat in
// chronological order, capped at the configured limit.
func (e *ArchiveExporter) Export(ctx context.Context) ([]ChatMessage, error) {
	rows, err := e.store.GetMessagesInChat(ctx, e.cfg.ChatID, e.cfg.Limit)
	if err != nil {
		return nil, err
	}

	messages := make([]ChatMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, fromArchiveRow(row))
	}

	e.log.InfoContext(ctx, "Exported messages from archive",
		"chat_id", e.cfg.ChatID, "messages", len(messages))
	return messages, nil
}

func fromArchiveRow(row database.Message) ChatMessage {
	out := ChatMessage{
		ID:          row.MessageID,
		ChatID:      row.ChatID,
		ChatTitle:   row.ChatTitle,
		Date:        FormatDate(row.Timestamp),
		Text:        row.Text,
		MessageType: row.MessageType,
		HasMedia:    row.HasMedia,
	}
	if row.UserID.Valid {
		userID := row.UserID.Int64
		out.UserID = &userID
	}
	if row.Username.Valid && row.Username.String != "" {
		username := row.Username.String
		out.Username = &username
	}
	if row.FullName.Valid && row.FullName.String != "" {
		fullName := row.FullName.String
		out.UserFullName = &fullName
	}
	if row.ReplyToID.Valid {
		out.ReplyToMessageID = row.ReplyToID.Int64
	}
	if row.HasMedia {
		switch row.MessageType {
		case "photo":
			out.MediaDescription = MediaPhoto
		case "document":
			out.MediaDescription = MediaImageDocument
		case "sticker":
			out.MediaDescription = MediaSticker
		}
	}
	return out
}
