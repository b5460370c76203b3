// Package htmlexport converts Telegram Desktop HTML chat exports into
// plain-text and JSONL forms.
package htmlexport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// sourceName marks JSONL records produced from an HTML export.
const sourceName = "telegram_html_export"

// Item is one message pulled out of an HTML export.
type Item struct {
	MessageID string `json:"message_id,omitempty"`
	Sender    string `json:"sender"`
	Time      string `json:"time"`
	Text      string `json:"text"`
}

type jsonlRecord struct {
	Content  string        `json:"content"`
	Metadata jsonlMetadata `json:"metadata"`
}

type jsonlMetadata struct {
	MessageID string `json:"message_id,omitempty"`
	Sender    string `json:"sender"`
	Time      string `json:"time"`
	Source    string `json:"source"`
}

// Convert parses a Telegram HTML export and returns its messages in
// document order. Messages without visible text are skipped. Both the
// web-app and Desktop export markups are recognized.
func Convert(r io.Reader) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var items []Item
	doc.Find("div.message-list-item, div.message").Each(func(_ int, sel *goquery.Selection) {
		text := cleanText(sel.Find(".text-content, .text").First().Text())
		if text == "" {
			return
		}

		item := Item{
			Sender: cleanText(sel.Find(".sender-title, .from_name").First().Text()),
			Time:   cleanText(sel.Find(".message-time, .date").First().Text()),
			Text:   text,
		}
		if id, ok := sel.Attr("data-message-id"); ok {
			item.MessageID = id
		} else if id, ok := sel.Attr("id"); ok {
			item.MessageID = strings.TrimPrefix(id, "message")
		}

		items = append(items, item)
	})

	return items, nil
}

// WriteMarkdown renders the items as "[time] sender: text" lines.
func WriteMarkdown(w io.Writer, items []Item) error {
	bw := bufio.NewWriter(w)
	for _, item := range items {
		sender := item.Sender
		if sender == "" {
			sender = "Неизвестный"
		}
		if _, err := fmt.Fprintf(bw, "[%s] %s: %s\n", item.Time, sender, item.Text); err != nil {
			return fmt.Errorf("failed to write line: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// WriteJSONL renders the items one JSON record per line, tagged with
// the export source.
func WriteJSONL(w io.Writer, items []Item) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	for _, item := range items {
		content := item.Text
		if item.Sender != "" {
			content = item.Sender + ": " + item.Text
		}
		rec := jsonlRecord{
			Content: content,
			Metadata: jsonlMetadata{
				MessageID: item.MessageID,
				Sender:    item.Sender,
				Time:      item.Time,
				Source:    sourceName,
			},
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// cleanText collapses runs of whitespace left behind by nested HTML.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
