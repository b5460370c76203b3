package database_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nazargulov/pb-joke-bot/internal/database"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(t.TempDir() + "/archive.db")
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func archivedMessage(chatID, messageID int64, text string, ts time.Time) *database.Message {
	return &database.Message{
		ChatID:      chatID,
		MessageID:   messageID,
		ChatTitle:   "Тестовый чат",
		UserID:      sql.NullInt64{Int64: 42, Valid: true},
		Username:    sql.NullString{String: "tester", Valid: true},
		FullName:    sql.NullString{String: "Test User", Valid: true},
		Text:        text,
		MessageType: "text",
		Timestamp:   ts,
	}
}

func TestSaveMessageUpsert(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	if err := store.SaveMessage(ctx, archivedMessage(-100, 1, "первая версия", ts)); err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	if err := store.SaveMessage(ctx, archivedMessage(-100, 1, "отредактировано", ts)); err != nil {
		t.Fatalf("SaveMessage (second): %v", err)
	}

	messages, err := store.GetMessagesInChat(ctx, -100, 0)
	if err != nil {
		t.Fatalf("GetMessagesInChat: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("got %d rows after upsert, want 1", len(messages))
	}
	if messages[0].Text != "отредактировано" {
		t.Errorf("text = %q, want updated text", messages[0].Text)
	}
}

func TestSaveMessageValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	ts := time.Now().UTC()

	tests := []struct {
		name string
		msg  *database.Message
	}{
		{name: "nil message", msg: nil},
		{name: "zero chat_id", msg: archivedMessage(0, 1, "x", ts)},
		{name: "zero message_id", msg: archivedMessage(-100, 0, "x", ts)},
		{name: "zero timestamp", msg: archivedMessage(-100, 1, "x", time.Time{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.SaveMessage(ctx, tt.msg); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestGetMessagesInChatOrderAndLimit(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := int64(1); i <= 5; i++ {
		msg := archivedMessage(-200, i, "сообщение", base.Add(time.Duration(i)*time.Minute))
		if err := store.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage %d: %v", i, err)
		}
	}
	// A different chat must not leak into the result.
	if err := store.SaveMessage(ctx, archivedMessage(-300, 1, "чужой чат", base)); err != nil {
		t.Fatalf("SaveMessage other chat: %v", err)
	}

	messages, err := store.GetMessagesInChat(ctx, -200, 3)
	if err != nil {
		t.Fatalf("GetMessagesInChat: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].Timestamp.Before(messages[i-1].Timestamp) {
			t.Errorf("messages not in chronological order at index %d", i)
		}
	}

	recent, err := store.GetRecentMessagesInChat(ctx, -200, 2)
	if err != nil {
		t.Fatalf("GetRecentMessagesInChat: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d recent messages, want 2", len(recent))
	}
	if recent[0].MessageID != 5 {
		t.Errorf("first recent message_id = %d, want newest (5)", recent[0].MessageID)
	}
}

func TestDeleteMessagesBefore(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	old := archivedMessage(-400, 1, "старое", cutoff.Add(-48*time.Hour))
	fresh := archivedMessage(-400, 2, "свежее", cutoff.Add(48*time.Hour))
	for _, msg := range []*database.Message{old, fresh} {
		if err := store.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
	}

	deleted, err := store.DeleteMessagesBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteMessagesBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	remaining, err := store.GetMessagesInChat(ctx, -400, 0)
	if err != nil {
		t.Fatalf("GetMessagesInChat: %v", err)
	}
	if len(remaining) != 1 || remaining[0].MessageID != 2 {
		t.Errorf("unexpected remaining rows: %+v", remaining)
	}
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.RunSQLMaintenance(context.Background()); err != nil {
		t.Errorf("RunSQLMaintenance: %v", err)
	}
}
