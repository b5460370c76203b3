package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	apiBaseURL = "https://api.telegram.org"

	downloadTimeout = 30 * time.Second
	maxDownloadSize = 10 * 1024 * 1024
)

// UpdatesClient reads the pending update queue over the raw HTTP API.
// The library wraps getUpdates inside its long-polling loop only, so
// one-shot reads go straight to the endpoint. No offset is passed, so
// the queue cursor is never advanced.
type UpdatesClient struct {
	token  string
	client *http.Client
	log    *slog.Logger
}

// NewUpdatesClient builds a one-shot getUpdates client.
func NewUpdatesClient(token string, log *slog.Logger) *UpdatesClient {
	if log == nil {
		log = slog.Default()
	}
	return &UpdatesClient{
		token:  token,
		client: &http.Client{Timeout: downloadTimeout},
		log:    log.With("component", "updates_client"),
	}
}

type getUpdatesResponse struct {
	OK          bool            `json:"ok"`
	Result      []models.Update `json:"result"`
	Description string          `json:"description"`
}

// GetUpdates fetches the currently pending updates once.
func (c *UpdatesClient) GetUpdates(ctx context.Context) ([]models.Update, error) {
	url := fmt.Sprintf("%s/bot%s/getUpdates", apiBaseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build getUpdates request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getUpdates request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.Warn("Error closing getUpdates response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("getUpdates returned status %d", resp.StatusCode)
	}

	var parsed getUpdatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode getUpdates response: %w", err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("getUpdates rejected: %s", parsed.Description)
	}

	c.log.Debug("Fetched pending updates", "count", len(parsed.Result))
	return parsed.Result, nil
}

// BotDownloader fetches Telegram files by file ID through the bot API.
// It implements the content download contract used by the resolver and
// the exporters.
type BotDownloader struct {
	bot    *bot.Bot
	client *http.Client
	log    *slog.Logger
}

// NewBotDownloader builds a file downloader over a bot instance.
func NewBotDownloader(b *bot.Bot, log *slog.Logger) *BotDownloader {
	if log == nil {
		log = slog.Default()
	}
	return &BotDownloader{
		bot:    b,
		client: &http.Client{Timeout: downloadTimeout},
		log:    log.With("component", "file_downloader"),
	}
}

// Download resolves a file ID to its download URL, fetches the bytes
// and sniffs the content type. Files over 10 MiB are rejected.
func (d *BotDownloader) Download(ctx context.Context, fileID string) ([]byte, string, error) {
	file, err := d.bot.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve file %s: %w", fileID, err)
	}

	url := d.bot.FileDownloadLink(file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			d.log.Warn("Error closing download response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("file download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file body: %w", err)
	}
	if len(data) > maxDownloadSize {
		return nil, "", fmt.Errorf("file %s exceeds the %d byte download limit", fileID, maxDownloadSize)
	}

	mimeType := http.DetectContentType(data)
	d.log.Debug("Downloaded file", "file_id", fileID, "bytes", len(data), "mime", mimeType)
	return data, mimeType, nil
}
