package handlers_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/nazargulov/pb-joke-bot/internal/bot/handlers"
	"github.com/nazargulov/pb-joke-bot/internal/config"
	"github.com/nazargulov/pb-joke-bot/internal/content"
	"github.com/nazargulov/pb-joke-bot/internal/database"
	"github.com/nazargulov/pb-joke-bot/internal/trigger"
)

// apiRecorder plays a Telegram Bot API server and keeps the bodies of
// sendMessage calls it receives.
type apiRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (r *apiRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		if strings.HasSuffix(req.URL.Path, "/sendMessage") {
			r.mu.Lock()
			r.bodies = append(r.bodies, string(body))
			r.mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":99,"date":1714567890,"chat":{"id":-100123,"type":"group","title":"Тестовый чат"}}}`))
	}
}

func (r *apiRecorder) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.bodies...)
}

type recordingStore struct {
	mu    sync.Mutex
	saved []database.Message
}

func (s *recordingStore) Ping(context.Context) error { return nil }

func (s *recordingStore) SaveMessage(_ context.Context, m *database.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, *m)
	return nil
}

func (s *recordingStore) GetRecentMessagesInChat(context.Context, int64, int) ([]database.Message, error) {
	return nil, nil
}

func (s *recordingStore) GetMessagesInChat(context.Context, int64, int) ([]database.Message, error) {
	return nil, nil
}

func (s *recordingStore) DeleteMessagesBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (s *recordingStore) RunSQLMaintenance(context.Context) error { return nil }

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

type cannedExplainer struct{ answer string }

func (e cannedExplainer) ExplainImage(context.Context, []byte, string) string { return e.answer }
func (e cannedExplainer) ExplainText(context.Context, string) string          { return e.answer }

type noDownloader struct{}

func (noDownloader) Download(context.Context, string) ([]byte, string, error) {
	return nil, "", errors.New("no files in this test")
}

func newTriggerFixture(t *testing.T) (*apiRecorder, *recordingStore, bot.HandlerFunc, *bot.Bot) {
	t.Helper()

	rec := &apiRecorder{}
	srv := httptest.NewServer(rec.handler())
	t.Cleanup(srv.Close)

	b, err := bot.New("123:test-token", bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	if err != nil {
		t.Fatalf("bot.New: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	matcher := trigger.New([]string{"что за мем"})
	store := &recordingStore{}
	cfg := &config.Config{
		Telegram: config.TelegramConfig{BotID: 7, BotUsername: "pb_joke_bot"},
		Messages: config.DefaultMessages,
	}
	deps := &handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Store:     store,
		Explainer: cannedExplainer{answer: "Это старый мем"},
		Resolver:  content.NewResolver(noDownloader{}, matcher, log),
	}

	return rec, store, handlers.NewTriggerHandler(deps, matcher), b
}

func triggerUpdate(text string, fromID int64) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   10,
			Date: 1714567890,
			Chat: models.Chat{ID: -100123, Type: models.ChatTypeGroup, Title: "Тестовый чат"},
			From: &models.User{ID: fromID, Username: "tester", FirstName: "Test"},
			Text: text,
		},
	}
}

func TestTriggerHandlerNoContentSingleReply(t *testing.T) {
	t.Parallel()

	rec, store, handle, b := newTriggerFixture(t)

	handle(context.Background(), b, triggerUpdate("что за мем", 42))

	sent := rec.sent()
	if len(sent) != 1 {
		t.Fatalf("got %d replies, want exactly 1", len(sent))
	}
	if !strings.Contains(sent[0], config.DefaultMessages.TriggerNotFound) {
		t.Errorf("reply is not the not-found message: %q", sent[0])
	}
	if strings.Contains(sent[0], config.DefaultMessages.TriggerAck) {
		t.Error("acknowledgment sent although nothing was resolvable")
	}
	// Incoming message and the bot's reply both land in the archive.
	if got := store.count(); got != 2 {
		t.Errorf("archived %d messages, want 2", got)
	}
}

func TestTriggerHandlerTextContentAckThenAnswer(t *testing.T) {
	t.Parallel()

	rec, _, handle, b := newTriggerFixture(t)

	handle(context.Background(), b, triggerUpdate("что за мем про котов", 42))

	sent := rec.sent()
	if len(sent) != 2 {
		t.Fatalf("got %d replies, want 2", len(sent))
	}
	if !strings.Contains(sent[0], config.DefaultMessages.TriggerAck) {
		t.Errorf("first reply is not the acknowledgment: %q", sent[0])
	}
	if !strings.Contains(sent[1], "🔍 Это старый мем") {
		t.Errorf("second reply is not the explanation: %q", sent[1])
	}
}

func TestTriggerHandlerIgnoresOwnMessages(t *testing.T) {
	t.Parallel()

	rec, store, handle, b := newTriggerFixture(t)

	handle(context.Background(), b, triggerUpdate("что за мем", 7))

	if got := rec.sent(); len(got) != 0 {
		t.Fatalf("replied to the bot's own message: %v", got)
	}
	if got := store.count(); got != 0 {
		t.Errorf("archived %d messages from the bot itself, want 0", got)
	}
}
