package export

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/nazargulov/pb-joke-bot/internal/config"
	"github.com/nazargulov/pb-joke-bot/internal/content"
	"github.com/nazargulov/pb-joke-bot/internal/thumbnail"
)

// UpdatesFetcher retrieves pending bot updates. Only updates still held
// by Telegram (roughly the last 24 hours) are visible this way.
type UpdatesFetcher interface {
	GetUpdates(ctx context.Context) ([]models.Update, error)
}

// UpdatesExporter exports recent messages of one chat from the bot
// update queue.
type UpdatesExporter struct {
	fetcher UpdatesFetcher
	dl      content.Downloader
	cfg     config.ExportConfig
	log     *slog.Logger
}

// NewUpdatesExporter wires an exporter over the bot update queue.
func NewUpdatesExporter(fetcher UpdatesFetcher, dl content.Downloader, cfg config.ExportConfig, log *slog.Logger) *UpdatesExporter {
	if log == nil {
		log = slog.Default()
	}
	return &UpdatesExporter{
		fetcher: fetcher,
		dl:      dl,
		cfg:     cfg,
		log:     log.With("component", "updates_exporter"),
	}
}

// Export walks the update queue and returns messages of the configured
// chat in queue order, newest last, capped at the configured limit.
func (e *UpdatesExporter) Export(ctx context.Context) ([]ChatMessage, error) {
	updates, err := e.fetcher.GetUpdates(ctx)
	if err != nil {
		return nil, err
	}

	chatID := e.cfg.ChatID

	var messages []ChatMessage
	for _, upd := range updates {
		if upd.Message == nil || upd.Message.Chat.ID != chatID {
			continue
		}
		messages = append(messages, e.convert(ctx, upd.Message))
		if e.cfg.Limit > 0 && len(messages) >= e.cfg.Limit {
			break
		}
	}

	e.log.InfoContext(ctx, "Exported messages from update queue",
		"chat_id", chatID, "updates", len(updates), "messages", len(messages))
	return messages, nil
}

func (e *UpdatesExporter) convert(ctx context.Context, msg *models.Message) ChatMessage {
	out := ChatMessage{
		ID:          int64(msg.ID),
		ChatID:      msg.Chat.ID,
		ChatTitle:   msg.Chat.Title,
		Date:        FormatDate(time.Unix(int64(msg.Date), 0)),
		Text:        msg.Text,
		MessageType: "text",
	}
	if out.Text == "" {
		out.Text = msg.Caption
	}
	if msg.From != nil {
		userID := msg.From.ID
		out.UserID = &userID
		if msg.From.Username != "" {
			username := msg.From.Username
			out.Username = &username
		}
		fullName := msg.From.FirstName
		if msg.From.LastName != "" {
			fullName += " " + msg.From.LastName
		}
		if fullName != "" {
			out.UserFullName = &fullName
		}
	}
	if msg.ReplyToMessage != nil {
		out.ReplyToMessageID = int64(msg.ReplyToMessage.ID)
	}

	switch {
	case len(msg.Photo) > 0:
		out.MessageType = "photo"
		out.HasMedia = true
		out.MediaDescription = MediaPhoto
		// Last entry is the largest photo size.
		fileID := msg.Photo[len(msg.Photo)-1].FileID
		if encoded, ok := e.downloadThumbnail(ctx, fileID); ok {
			out.ImageBase64 = encoded
		} else {
			out.MediaDescription = MediaPhotoFailed
		}

	case msg.Document != nil:
		out.MessageType = "document"
		out.HasMedia = true
		if isImageMIME(msg.Document.MimeType) {
			out.MediaDescription = MediaImageDocument
			if encoded, ok := e.downloadThumbnail(ctx, msg.Document.FileID); ok {
				out.ImageBase64 = encoded
			}
		}

	case msg.Sticker != nil:
		out.MessageType = "sticker"
		out.HasMedia = true
		out.MediaDescription = MediaSticker
	}

	return out
}

// downloadThumbnail fetches a file by ID and downscales it. Any failure
// degrades the message to a description-only export.
func (e *UpdatesExporter) downloadThumbnail(ctx context.Context, fileID string) (string, bool) {
	if e.dl == nil {
		return "", false
	}
	data, _, err := e.dl.Download(ctx, fileID)
	if err != nil {
		e.log.WarnContext(ctx, "Failed to download media", "file_id", fileID, "error", err)
		return "", false
	}
	encoded, err := thumbnail.JPEGBase64(data, e.cfg.MaxImageDim, e.cfg.JPEGQuality)
	if err != nil {
		e.log.WarnContext(ctx, "Failed to build thumbnail", "file_id", fileID, "error", err)
		return "", false
	}
	return encoded, true
}

func isImageMIME(mime string) bool {
	return len(mime) > 6 && mime[:6] == "image/"
}
