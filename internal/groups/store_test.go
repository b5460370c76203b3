package groups_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/nazargulov/pb-joke-bot/internal/groups"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*groups.Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "detected_groups.json")
	store, err := groups.NewStore(path, discardLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, path
}

func TestRecordLifecycle(t *testing.T) {
	t.Parallel()

	store, path := newTestStore(t)

	isNew, err := store.Record(-100123, "Тестовая группа", "supergroup", groups.EventBotAdded)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !isNew {
		t.Error("first sighting must report a new group")
	}

	g, ok := store.Get(-100123)
	if !ok {
		t.Fatal("group not tracked after Record")
	}
	if g.Status != groups.StatusActive || g.EventType != groups.EventBotAdded {
		t.Errorf("unexpected group state: %+v", g)
	}
	firstDetected := g.FirstDetected

	// Repeat activity must not reset first_detected.
	isNew, err = store.Record(-100123, "Тестовая группа", "supergroup", groups.EventMessageReceived)
	if err != nil {
		t.Fatalf("Record (second): %v", err)
	}
	if isNew {
		t.Error("second sighting must not report a new group")
	}
	g, _ = store.Get(-100123)
	if g.FirstDetected != firstDetected {
		t.Errorf("first_detected changed: %s -> %s", firstDetected, g.FirstDetected)
	}
	if g.EventType != groups.EventMessageReceived {
		t.Errorf("event_type = %q, want message_received", g.EventType)
	}

	if err := store.MarkRemoved(-100123, "Тестовая группа", "supergroup"); err != nil {
		t.Fatalf("MarkRemoved: %v", err)
	}
	g, _ = store.Get(-100123)
	if g.Status != groups.StatusRemoved || g.RemovedAt == "" {
		t.Errorf("group not marked removed: %+v", g)
	}
	if len(store.Active()) != 0 {
		t.Error("removed group still listed as active")
	}

	// Re-adding reactivates the group.
	if _, err := store.Record(-100123, "Тестовая группа", "supergroup", groups.EventBotAdded); err != nil {
		t.Fatalf("Record (re-add): %v", err)
	}
	g, _ = store.Get(-100123)
	if g.Status != groups.StatusActive {
		t.Errorf("re-added group status = %q, want active", g.Status)
	}

	// The file must survive a reload.
	reloaded, err := groups.NewStore(path, discardLogger())
	if err != nil {
		t.Fatalf("NewStore (reload): %v", err)
	}
	if _, ok := reloaded.Get(-100123); !ok {
		t.Error("group lost after reload")
	}
}

func TestRecordUntitledGroup(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	if _, err := store.Record(-200, "", "group", groups.EventBotAdded); err != nil {
		t.Fatalf("Record: %v", err)
	}
	g, _ := store.Get(-200)
	if g.Title != groups.UntitledGroup {
		t.Errorf("title = %q, want %q", g.Title, groups.UntitledGroup)
	}
}

func TestFileFormat(t *testing.T) {
	t.Parallel()

	store, path := newTestStore(t)
	if _, err := store.Record(-100123, "Тестовая группа", "supergroup", groups.EventBotAdded); err != nil {
		t.Fatalf("Record: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read groups file: %v", err)
	}

	var data struct {
		Groups      map[string]groups.Group `json:"groups"`
		LastUpdated string                  `json:"last_updated"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("groups file is not valid JSON: %v", err)
	}
	if data.LastUpdated == "" {
		t.Error("last_updated missing")
	}
	if _, ok := data.Groups["-100123"]; !ok {
		t.Errorf("group keyed by chat ID missing: %v", data.Groups)
	}
}

type fakeFetcher struct {
	updates []models.Update
}

func (f *fakeFetcher) GetUpdates(context.Context) ([]models.Update, error) {
	return f.updates, nil
}

func memberUpdate(chatID int64, title string, oldType, newType models.ChatMemberType) models.Update {
	return models.Update{
		MyChatMember: &models.ChatMemberUpdated{
			Chat:          models.Chat{ID: chatID, Type: models.ChatTypeSupergroup, Title: title},
			OldChatMember: models.ChatMember{Type: oldType},
			NewChatMember: models.ChatMember{Type: newType},
		},
	}
}

func TestWatcherMembershipTransitions(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	watcher := groups.NewWatcher(store, discardLogger())
	ctx := context.Background()

	added := memberUpdate(-100123, "Тестовая группа", models.ChatMemberTypeLeft, models.ChatMemberTypeMember)
	watcher.HandleUpdate(ctx, &added)
	if g, ok := store.Get(-100123); !ok || g.Status != groups.StatusActive {
		t.Fatalf("group not recorded on join: %+v", g)
	}

	kicked := memberUpdate(-100123, "Тестовая группа", models.ChatMemberTypeMember, models.ChatMemberTypeBanned)
	watcher.HandleUpdate(ctx, &kicked)
	if g, _ := store.Get(-100123); g.Status != groups.StatusRemoved {
		t.Errorf("group not marked removed on kick: %+v", g)
	}
}

func TestWatcherIgnoresPrivateChats(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	watcher := groups.NewWatcher(store, discardLogger())

	upd := models.Update{
		Message: &models.Message{
			ID:   1,
			Chat: models.Chat{ID: 42, Type: models.ChatTypePrivate},
			Text: "привет",
		},
	}
	watcher.HandleUpdate(context.Background(), &upd)

	if got := len(store.Active()); got != 0 {
		t.Errorf("private chat recorded as group, active = %d", got)
	}
}

func TestStartupScan(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	watcher := groups.NewWatcher(store, discardLogger())

	fetcher := &fakeFetcher{updates: []models.Update{
		memberUpdate(-100123, "Первая", models.ChatMemberTypeLeft, models.ChatMemberTypeMember),
		{
			Message: &models.Message{
				ID:   7,
				Chat: models.Chat{ID: -500, Type: models.ChatTypeGroup, Title: "Вторая"},
				Text: "сообщение",
			},
		},
		// Duplicate chat in the queue must be recorded once per run.
		{
			Message: &models.Message{
				ID:   8,
				Chat: models.Chat{ID: -500, Type: models.ChatTypeGroup, Title: "Вторая"},
				Text: "ещё",
			},
		},
	}}

	if err := watcher.StartupScan(context.Background(), fetcher); err != nil {
		t.Fatalf("StartupScan: %v", err)
	}

	active := store.Active()
	if len(active) != 2 {
		t.Fatalf("active groups = %d, want 2", len(active))
	}
	if g, _ := store.Get(-500); g.EventType != groups.EventStartupScan {
		t.Errorf("scan event_type = %q, want startup_scan", g.EventType)
	}
}
