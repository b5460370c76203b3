package content_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/nazargulov/pb-joke-bot/internal/content"
	"github.com/nazargulov/pb-joke-bot/internal/trigger"
)

type fakeDownloader struct {
	files  map[string][]byte
	failed map[string]bool
	calls  []string
}

func (d *fakeDownloader) Download(_ context.Context, fileID string) ([]byte, string, error) {
	d.calls = append(d.calls, fileID)
	if d.failed[fileID] {
		return nil, "", errors.New("download failed")
	}
	data, ok := d.files[fileID]
	if !ok {
		return nil, "", errors.New("unknown file")
	}
	return data, "image/jpeg", nil
}

func newResolver(dl *fakeDownloader) *content.Resolver {
	m := trigger.New([]string{"мпб", "не понял"})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return content.NewResolver(dl, m, log)
}

func photoMessage(fileIDs ...string) *models.Message {
	msg := &models.Message{}
	for _, id := range fileIDs {
		msg.Photo = append(msg.Photo, models.PhotoSize{FileID: id})
	}
	return msg
}

func TestResolvePrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		msg        *models.Message
		directText string
		wantKind   content.Kind
		wantText   string
		wantFile   string
	}{
		{
			name: "direct photo beats reply photo",
			msg: func() *models.Message {
				msg := photoMessage("direct")
				msg.ReplyToMessage = photoMessage("reply")
				return msg
			}(),
			wantKind: content.KindImage,
			wantFile: "direct",
		},
		{
			name:     "largest photo size is the last one",
			msg:      photoMessage("small", "medium", "large"),
			wantKind: content.KindImage,
			wantFile: "large",
		},
		{
			name: "reply photo beats direct image document",
			msg: func() *models.Message {
				msg := &models.Message{
					Document: &models.Document{FileID: "doc", MimeType: "image/png"},
				}
				msg.ReplyToMessage = photoMessage("reply")
				return msg
			}(),
			wantKind: content.KindImage,
			wantFile: "reply",
		},
		{
			name: "direct image document resolved",
			msg: &models.Message{
				Document: &models.Document{FileID: "doc", MimeType: "image/png"},
			},
			wantKind: content.KindImage,
			wantFile: "doc",
		},
		{
			name: "reply image document resolved",
			msg: &models.Message{
				ReplyToMessage: &models.Message{
					Document: &models.Document{FileID: "replydoc", MimeType: "image/webp"},
				},
			},
			wantKind: content.KindImage,
			wantFile: "replydoc",
		},
		{
			name: "reply with non-image document yields nothing",
			msg: &models.Message{
				ReplyToMessage: &models.Message{
					Document: &models.Document{FileID: "pdf", MimeType: "application/pdf"},
				},
			},
			wantKind: content.KindNone,
		},
		{
			name:       "direct text with trigger stripped",
			msg:        &models.Message{},
			directText: "мпб почему это смешно",
			wantKind:   content.KindText,
			wantText:   "почему это смешно",
		},
		{
			name:       "text that is only a trigger phrase falls through",
			msg:        &models.Message{},
			directText: "мпб",
			wantKind:   content.KindNone,
		},
		{
			name: "only trigger phrase falls through to reply text",
			msg: &models.Message{
				ReplyToMessage: &models.Message{Text: "какой-то анекдот"},
			},
			directText: "не понял?",
			wantKind:   content.KindText,
			wantText:   "какой-то анекдот",
		},
		{
			name: "reply caption used when reply has no text",
			msg: &models.Message{
				ReplyToMessage: &models.Message{Caption: "подпись к видео"},
			},
			wantKind: content.KindText,
			wantText: "подпись к видео",
		},
		{
			name:     "empty message yields nothing",
			msg:      &models.Message{},
			wantKind: content.KindNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dl := &fakeDownloader{files: map[string][]byte{
				"direct": []byte("direct-bytes"), "reply": []byte("reply-bytes"),
				"small": []byte("s"), "medium": []byte("m"), "large": []byte("l"),
				"doc": []byte("d"), "replydoc": []byte("rd"),
			}}
			r := newResolver(dl)

			got := r.Resolve(context.Background(), tt.msg, tt.directText)
			if got.Kind != tt.wantKind {
				t.Fatalf("Resolve kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if tt.wantKind == content.KindText && got.Text != tt.wantText {
				t.Errorf("Resolve text = %q, want %q", got.Text, tt.wantText)
			}
			if tt.wantKind == content.KindImage {
				if len(dl.calls) != 1 || dl.calls[0] != tt.wantFile {
					t.Errorf("downloaded %v, want exactly [%s]", dl.calls, tt.wantFile)
				}
			}
		})
	}
}

func TestResolveDownloadFailureDegradesToNothing(t *testing.T) {
	t.Parallel()

	dl := &fakeDownloader{failed: map[string]bool{"direct": true}}
	r := newResolver(dl)

	msg := photoMessage("direct")
	msg.ReplyToMessage = &models.Message{Text: "текст в ответе"}

	got := r.Resolve(context.Background(), msg, "какой-то текст")
	if got.Kind != content.KindNone {
		t.Fatalf("Resolve after failed download = %v, want KindNone", got.Kind)
	}
	if len(dl.calls) != 1 {
		t.Errorf("download attempted %d times, want 1 (no retries)", len(dl.calls))
	}
}

func TestResolveNilMessage(t *testing.T) {
	t.Parallel()

	r := newResolver(&fakeDownloader{})
	if got := r.Resolve(context.Background(), nil, "text"); got.Kind != content.KindNone {
		t.Errorf("Resolve(nil) = %v, want KindNone", got.Kind)
	}
}
