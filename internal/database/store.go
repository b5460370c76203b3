package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for archive operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage inserts or updates one archived message keyed by
	// (chat_id, message_id).
	SaveMessage(ctx context.Context, message *Message) error

	// GetRecentMessagesInChat retrieves the most recent 'limit' messages
	// for a given chat ID, newest first.
	GetRecentMessagesInChat(ctx context.Context, chatID int64, limit int) ([]Message, error)

	// GetMessagesInChat retrieves up to 'limit' messages for a chat in
	// chronological order, for export.
	GetMessagesInChat(ctx context.Context, chatID int64, limit int) ([]Message, error)

	// DeleteMessagesBefore removes archived messages older than the cutoff
	// and returns how many rows were deleted.
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveMessage inserts or updates one archived message. The upsert keeps
// first-seen created_at and refreshes everything else, so edited
// messages replace their earlier archived text.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.ChatID == 0 {
		return fmt.Errorf("message must have a non-zero chat_id")
	}
	if message.MessageID == 0 {
		return fmt.Errorf("message must have a non-zero message_id")
	}
	if message.Timestamp.IsZero() {
		return fmt.Errorf("message must have a non-zero timestamp")
	}

	now := time.Now().UTC()
	message.CreatedAt = now
	message.UpdatedAt = now

	query := `
        INSERT INTO messages (
            chat_id, message_id, chat_title, user_id, username, full_name,
            text, message_type, has_media, reply_to_id, timestamp,
            created_at, updated_at
        ) VALUES (
            :chat_id, :message_id, :chat_title, :user_id, :username, :full_name,
            :text, :message_type, :has_media, :reply_to_id, :timestamp,
            :created_at, :updated_at
        )
        ON CONFLICT (chat_id, message_id) DO UPDATE SET
            chat_title   = excluded.chat_title,
            user_id      = excluded.user_id,
            username     = excluded.username,
            full_name    = excluded.full_name,
            text         = excluded.text,
            message_type = excluded.message_type,
            has_media    = excluded.has_media,
            reply_to_id  = excluded.reply_to_id,
            timestamp    = excluded.timestamp,
            updated_at   = excluded.updated_at;
    `

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message",
			"chat_id", message.ChatID, "message_id", message.MessageID, "error", err)
		return fmt.Errorf("failed to save message (chat %d, message %d): %w",
			message.ChatID, message.MessageID, err)
	}

	if id, err := result.LastInsertId(); err == nil && id > 0 {
		//nolint:gosec // row IDs stay well within uint range
		message.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Message saved",
		"chat_id", message.ChatID, "message_id", message.MessageID)
	return nil
}

// GetRecentMessagesInChat retrieves the most recent 'limit' messages for a given chat ID.
func (s *sqlxStore) GetRecentMessagesInChat(ctx context.Context, chatID int64, limit int) ([]Message, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if limit <= 0 {
		limit = 20
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var messages []Message
	query := `
        SELECT id, chat_id, message_id, chat_title, user_id, username, full_name,
               text, message_type, has_media, reply_to_id, timestamp,
               created_at, updated_at
        FROM messages
        WHERE chat_id = ?
        ORDER BY timestamp DESC, message_id DESC
        LIMIT ?;
    `

	err := s.db.SelectContext(ctx, &messages, query, chatID, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent messages",
			"chat_id", chatID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent messages for chat %d: %w", chatID, err)
	}

	s.logger.DebugContext(ctx, "Fetched recent messages", "chat_id", chatID, "count", len(messages))
	return messages, nil
}

// GetMessagesInChat retrieves up to 'limit' messages for a chat in
// chronological order. A non-positive limit means no limit.
func (s *sqlxStore) GetMessagesInChat(ctx context.Context, chatID int64, limit int) ([]Message, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var messages []Message
	query := `
        SELECT id, chat_id, message_id, chat_title, user_id, username, full_name,
               text, message_type, has_media, reply_to_id, timestamp,
               created_at, updated_at
        FROM messages
        WHERE chat_id = ?
        ORDER BY timestamp ASC, message_id ASC
    `
	args := []any{chatID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	err := s.db.SelectContext(ctx, &messages, query, args...)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting messages for export",
			"chat_id", chatID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get messages for chat %d: %w", chatID, err)
	}

	s.logger.DebugContext(ctx, "Fetched messages for export", "chat_id", chatID, "count", len(messages))
	return messages, nil
}

// DeleteMessagesBefore removes archived messages with a timestamp before
// the cutoff and returns how many rows were deleted.
func (s *sqlxStore) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if cutoff.IsZero() {
		return 0, fmt.Errorf("cutoff cannot be zero")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE timestamp < ?`, cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting old messages", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to delete messages before %s: %w", cutoff, err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count after cleanup", "error", err)
		return 0, nil
	}

	s.logger.InfoContext(ctx, "Deleted old messages", "cutoff", cutoff, "count", count)
	return count, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
