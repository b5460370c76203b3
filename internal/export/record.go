// Package export turns Telegram chat history into JSON and JSONL
// archives suitable for retrieval pipelines.
package export

import (
	"strings"
	"time"
)

// Media descriptions written into the text content of exported
// messages, in place of the media bytes themselves.
const (
	MediaPhoto         = "Изображение"
	MediaPhotoFailed   = "Изображение (не удалось загрузить)"
	MediaImageDocument = "Документ с изображением"
	MediaSticker       = "Стикер"
)

// emptyContent is written when a message carries neither text nor media.
const emptyContent = "Пустое сообщение"

// ChatMessage is one exported message in the JSON array format.
type ChatMessage struct {
	ID               int64   `json:"id"`
	ChatID           int64   `json:"chat_id"`
	ChatTitle        string  `json:"chat_title,omitempty"`
	UserID           *int64  `json:"user_id"`
	Username         *string `json:"username"`
	UserFullName     *string `json:"user_full_name"`
	Date             string  `json:"date"`
	Text             string  `json:"text"`
	MessageType      string  `json:"message_type"`
	HasMedia         bool    `json:"has_media"`
	MediaDescription string  `json:"media_description,omitempty"`
	ImageBase64      string  `json:"image_base64,omitempty"`
	ReplyToMessageID int64   `json:"reply_to_message_id,omitempty"`
}

// VectorMetadata identifies the source message of a vector record.
type VectorMetadata struct {
	MessageID        int64  `json:"message_id"`
	ChatID           int64  `json:"chat_id"`
	ChatTitle        string `json:"chat_title,omitempty"`
	UserID           *int64 `json:"user_id"`
	Username         string `json:"username,omitempty"`
	UserFullName     string `json:"user_full_name,omitempty"`
	Date             string `json:"date"`
	MessageType      string `json:"message_type"`
	HasMedia         bool   `json:"has_media"`
	ReplyToMessageID int64  `json:"reply_to_message_id,omitempty"`
}

// VectorRecord is one JSONL line in the vector-store ingestion format:
// a flattened content string plus the metadata needed to trace it back.
type VectorRecord struct {
	Content     string         `json:"content"`
	Metadata    VectorMetadata `json:"metadata"`
	ImageBase64 string         `json:"image_base64,omitempty"`
}

// ContentString flattens a message into the single content field of a
// vector record. Text and media description are joined with " | ";
// a message with neither becomes the empty-content marker.
func ContentString(text, mediaDescription string) string {
	var parts []string
	if text = strings.TrimSpace(text); text != "" {
		parts = append(parts, "Текст: "+text)
	}
	if mediaDescription != "" {
		parts = append(parts, "Медиа: "+mediaDescription)
	}
	if len(parts) == 0 {
		return emptyContent
	}
	return strings.Join(parts, " | ")
}

// ToVectorRecord converts an exported message into its JSONL form.
func (m ChatMessage) ToVectorRecord() VectorRecord {
	username := ""
	if m.Username != nil {
		username = *m.Username
	}
	fullName := ""
	if m.UserFullName != nil {
		fullName = *m.UserFullName
	}
	return VectorRecord{
		Content: ContentString(m.Text, m.MediaDescription),
		Metadata: VectorMetadata{
			MessageID:        m.ID,
			ChatID:           m.ChatID,
			ChatTitle:        m.ChatTitle,
			UserID:           m.UserID,
			Username:         username,
			UserFullName:     fullName,
			Date:             m.Date,
			MessageType:      m.MessageType,
			HasMedia:         m.HasMedia,
			ReplyToMessageID: m.ReplyToMessageID,
		},
		ImageBase64: m.ImageBase64,
	}
}

// FormatDate renders message timestamps the way both output formats
// expect them.
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
