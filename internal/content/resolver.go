package content

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/nazargulov/pb-joke-bot/internal/trigger"
)

// Downloader fetches a Telegram file by its file ID.
type Downloader interface {
	Download(ctx context.Context, fileID string) (data []byte, mimeType string, err error)
}

// Resolver inspects an inbound message and the message it replies to, and
// produces exactly one piece of content under a fixed precedence:
//
//  1. photo on the message
//  2. photo on the replied-to message
//  3. image-typed document on the message
//  4. image-typed document on the replied-to message
//  5. message text with trigger phrases stripped, if anything substantive remains
//  6. text of the replied-to message
//
// A download failure for a selected attachment degrades to "nothing
// found"; it does not fall through to the next rule and is not retried.
type Resolver struct {
	dl      Downloader
	matcher *trigger.Matcher
	log     *slog.Logger
}

// NewResolver creates a Resolver. The matcher is used to strip trigger
// phrases out of the direct-text rule.
func NewResolver(dl Downloader, matcher *trigger.Matcher, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		dl:      dl,
		matcher: matcher,
		log:     log.With("component", "content_resolver"),
	}
}

// Resolve applies the precedence rules to msg. directText is the caller's
// candidate for the direct-text rule: the raw message text for trigger
// handling, or the inline arguments for a command.
func (r *Resolver) Resolve(ctx context.Context, msg *models.Message, directText string) Content {
	if msg == nil {
		return None
	}
	reply := msg.ReplyToMessage

	if fileID := photoFileID(msg); fileID != "" {
		r.log.DebugContext(ctx, "Resolved direct photo", "file_id", fileID)
		return r.download(ctx, fileID)
	}
	if fileID := photoFileID(reply); fileID != "" {
		r.log.DebugContext(ctx, "Resolved reply photo", "file_id", fileID)
		return r.download(ctx, fileID)
	}
	if fileID := imageDocumentFileID(msg); fileID != "" {
		r.log.DebugContext(ctx, "Resolved direct image document", "file_id", fileID)
		return r.download(ctx, fileID)
	}
	if fileID := imageDocumentFileID(reply); fileID != "" {
		r.log.DebugContext(ctx, "Resolved reply image document", "file_id", fileID)
		return r.download(ctx, fileID)
	}

	if stripped := r.matcher.Strip(directText); trigger.Residual(stripped) {
		r.log.DebugContext(ctx, "Resolved direct text")
		return Text(stripped)
	}
	if reply != nil {
		replyText := reply.Text
		if replyText == "" {
			replyText = reply.Caption
		}
		if strings.TrimSpace(replyText) != "" {
			r.log.DebugContext(ctx, "Resolved reply text")
			return Text(strings.TrimSpace(replyText))
		}
	}

	r.log.DebugContext(ctx, "No resolvable content found")
	return None
}

func (r *Resolver) download(ctx context.Context, fileID string) Content {
	data, mime, err := r.dl.Download(ctx, fileID)
	if err != nil {
		// No retry: a failed download means nothing to explain.
		r.log.ErrorContext(ctx, "Attachment download failed", "file_id", fileID, "error", err)
		return None
	}
	return Image(data, mime)
}

// photoFileID returns the file ID of the largest photo size, which
// Telegram delivers last in the ordered slice.
func photoFileID(msg *models.Message) string {
	if msg == nil || len(msg.Photo) == 0 {
		return ""
	}
	return msg.Photo[len(msg.Photo)-1].FileID
}

func imageDocumentFileID(msg *models.Message) string {
	if msg == nil || msg.Document == nil {
		return ""
	}
	if !strings.HasPrefix(msg.Document.MimeType, "image/") {
		return ""
	}
	return msg.Document.FileID
}
