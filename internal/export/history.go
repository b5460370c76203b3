package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"

	"github.com/nazargulov/pb-joke-bot/internal/config"
	"github.com/nazargulov/pb-joke-bot/internal/thumbnail"
)

const historyPageSize = 100

// HistoryExporter exports the full history of one chat over MTProto
// with a user account. Unlike the bot-API exporters it can see messages
// older than the update queue keeps.
type HistoryExporter struct {
	api *tg.Client
	cfg config.ExportConfig
	log *slog.Logger
}

// NewHistoryExporter wires an exporter over an authorized MTProto API
// client.
func NewHistoryExporter(api *tg.Client, cfg config.ExportConfig, log *slog.Logger) *HistoryExporter {
	if log == nil {
		log = slog.Default()
	}
	return &HistoryExporter{
		api: api,
		cfg: cfg,
		log: log.With("component", "history_exporter"),
	}
}

// Export pages through the chat history and returns messages in
// chronological order, capped at the configured limit.
func (e *HistoryExporter) Export(ctx context.Context) ([]ChatMessage, error) {
	peer, title, err := e.resolvePeer(ctx)
	if err != nil {
		return nil, err
	}

	var (
		messages []ChatMessage
		users    = map[int64]*tg.User{}
		offsetID int
	)

	for {
		req := &tg.MessagesGetHistoryRequest{
			Peer:     peer,
			OffsetID: offsetID,
			Limit:    historyPageSize,
		}
		raw, err := e.api.MessagesGetHistory(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch history page: %w", err)
		}

		page, pageUsers, err := unpackHistory(raw)
		if err != nil {
			return nil, err
		}
		for _, u := range pageUsers {
			if user, ok := u.(*tg.User); ok {
				users[user.ID] = user
			}
		}
		if len(page) == 0 {
			break
		}

		done := false
		for _, raw := range page {
			msg, ok := raw.(*tg.Message)
			if !ok {
				continue
			}
			messages = append(messages, e.convert(ctx, msg, title, users))
			offsetID = msg.ID
			if e.cfg.HistoryLimit > 0 && len(messages) >= e.cfg.HistoryLimit {
				done = true
				break
			}
		}
		if done || len(page) < historyPageSize {
			break
		}
	}

	// getHistory pages newest first; exports are chronological.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	e.log.InfoContext(ctx, "Exported full history",
		"chat_id", e.cfg.ChatID, "messages", len(messages))
	return messages, nil
}

// resolvePeer maps the bot-API style chat ID onto an MTProto input peer
// by scanning the account's dialogs. Supergroup IDs carry a -1e12
// offset; basic group IDs are plain negated chat IDs.
func (e *HistoryExporter) resolvePeer(ctx context.Context) (tg.InputPeerClass, string, error) {
	id := e.cfg.ChatID
	if id >= 0 {
		return nil, "", fmt.Errorf("chat ID %d does not identify a group chat", id)
	}

	var (
		channelID int64
		chatID    int64
	)
	if id <= -1_000_000_000_000 {
		channelID = -id - 1_000_000_000_000
	} else {
		chatID = -id
	}

	raw, err := e.api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      historyPageSize,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list dialogs: %w", err)
	}

	var chats []tg.ChatClass
	switch d := raw.(type) {
	case *tg.MessagesDialogs:
		chats = d.Chats
	case *tg.MessagesDialogsSlice:
		chats = d.Chats
	default:
		return nil, "", fmt.Errorf("unexpected dialogs response %T", raw)
	}

	for _, c := range chats {
		switch chat := c.(type) {
		case *tg.Channel:
			if channelID != 0 && chat.ID == channelID {
				return &tg.InputPeerChannel{
					ChannelID:  chat.ID,
					AccessHash: chat.AccessHash,
				}, chat.Title, nil
			}
		case *tg.Chat:
			if chatID != 0 && chat.ID == chatID {
				return &tg.InputPeerChat{ChatID: chat.ID}, chat.Title, nil
			}
		}
	}

	return nil, "", fmt.Errorf("chat %d not found among account dialogs", id)
}

func unpackHistory(raw tg.MessagesMessagesClass) ([]tg.MessageClass, []tg.UserClass, error) {
	switch m := raw.(type) {
	case *tg.MessagesMessages:
		return m.Messages, m.Users, nil
	case *tg.MessagesMessagesSlice:
		return m.Messages, m.Users, nil
	case *tg.MessagesChannelMessages:
		return m.Messages, m.Users, nil
	default:
		return nil, nil, fmt.Errorf("unexpected history response %T", raw)
	}
}

func (e *HistoryExporter) convert(ctx context.Context, msg *tg.Message, title string, users map[int64]*tg.User) ChatMessage {
	out := ChatMessage{
		ID:          int64(msg.ID),
		ChatID:      e.cfg.ChatID,
		ChatTitle:   title,
		Date:        FormatDate(time.Unix(int64(msg.Date), 0)),
		Text:        msg.Message,
		MessageType: "text",
	}

	if peer, ok := msg.FromID.(*tg.PeerUser); ok {
		userID := peer.UserID
		out.UserID = &userID
		if user, found := users[peer.UserID]; found {
			if user.Username != "" {
				username := user.Username
				out.Username = &username
			}
			fullName := user.FirstName
			if user.LastName != "" {
				fullName += " " + user.LastName
			}
			if fullName != "" {
				out.UserFullName = &fullName
			}
		}
	}

	if reply, ok := msg.ReplyTo.(*tg.MessageReplyHeader); ok && reply.ReplyToMsgID != 0 {
		out.ReplyToMessageID = int64(reply.ReplyToMsgID)
	}

	switch media := msg.Media.(type) {
	case *tg.MessageMediaPhoto:
		out.MessageType = "photo"
		out.HasMedia = true
		out.MediaDescription = MediaPhoto
		if photo, ok := media.Photo.(*tg.Photo); ok {
			if encoded, ok := e.downloadPhoto(ctx, photo); ok {
				out.ImageBase64 = encoded
			} else {
				out.MediaDescription = MediaPhotoFailed
			}
		} else {
			out.MediaDescription = MediaPhotoFailed
		}

	case *tg.MessageMediaDocument:
		doc, ok := media.Document.(*tg.Document)
		if !ok {
			break
		}
		out.HasMedia = true
		if isSticker(doc) {
			out.MessageType = "sticker"
			out.MediaDescription = MediaSticker
			break
		}
		out.MessageType = "document"
		if isImageMIME(doc.MimeType) {
			out.MediaDescription = MediaImageDocument
			if encoded, ok := e.downloadDocument(ctx, doc); ok {
				out.ImageBase64 = encoded
			}
		}
	}

	return out
}

func (e *HistoryExporter) downloadPhoto(ctx context.Context, photo *tg.Photo) (string, bool) {
	sizeType := largestSizeType(photo.Sizes)
	if sizeType == "" {
		return "", false
	}

	loc := &tg.InputPhotoFileLocation{
		ID:            photo.ID,
		AccessHash:    photo.AccessHash,
		FileReference: photo.FileReference,
		ThumbSize:     sizeType,
	}
	return e.download(ctx, loc)
}

func (e *HistoryExporter) downloadDocument(ctx context.Context, doc *tg.Document) (string, bool) {
	loc := &tg.InputDocumentFileLocation{
		ID:            doc.ID,
		AccessHash:    doc.AccessHash,
		FileReference: doc.FileReference,
	}
	return e.download(ctx, loc)
}

func (e *HistoryExporter) download(ctx context.Context, loc tg.InputFileLocationClass) (string, bool) {
	var buf bytes.Buffer
	if _, err := downloader.NewDownloader().Download(e.api, loc).Stream(ctx, &buf); err != nil {
		e.log.WarnContext(ctx, "Failed to download media", "error", err)
		return "", false
	}

	encoded, err := thumbnail.JPEGBase64(buf.Bytes(), e.cfg.MaxImageDim, e.cfg.JPEGQuality)
	if err != nil {
		e.log.WarnContext(ctx, "Failed to build thumbnail", "error", err)
		return "", false
	}
	return encoded, true
}

// largestSizeType picks the last regular photo size, which Telegram
// orders smallest to largest.
func largestSizeType(sizes []tg.PhotoSizeClass) string {
	for i := len(sizes) - 1; i >= 0; i-- {
		switch s := sizes[i].(type) {
		case *tg.PhotoSize:
			return s.Type
		case *tg.PhotoSizeProgressive:
			return s.Type
		}
	}
	return ""
}

func isSticker(doc *tg.Document) bool {
	for _, attr := range doc.Attributes {
		if _, ok := attr.(*tg.DocumentAttributeSticker); ok {
			return true
		}
	}
	return false
}
