package database

import (
	"database/sql"
	"time"
)

// Message is one archived Telegram group message. The pair
// (chat_id, message_id) is unique; re-saving the same Telegram message
// updates the existing row.
type Message struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	ChatID    int64  `db:"chat_id"`
	MessageID int64  `db:"message_id"`
	ChatTitle string `db:"chat_title"`

	UserID   sql.NullInt64  `db:"user_id"`
	Username sql.NullString `db:"username"`
	FullName sql.NullString `db:"full_name"`

	Text        string        `db:"text"`
	MessageType string        `db:"message_type"`
	HasMedia    bool          `db:"has_media"`
	ReplyToID   sql.NullInt64 `db:"reply_to_id"`

	Timestamp time.Time `db:"timestamp"`
}
