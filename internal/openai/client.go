// Package openai implements the Explainer: it forwards resolved chat
// content to the OpenAI chat-completions API and returns a
// natural-language explanation in Russian.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nazargulov/pb-joke-bot/internal/config"
)

// Apology is the static string returned for any remote failure. Callers
// cannot distinguish failure reasons from the return value; causes are
// only visible in logs.
const Apology = "Извините, не смог проанализировать изображение. Попробуйте позже."

// DefaultInstruction is the system prompt used when no instruction file
// is present.
const DefaultInstruction = "Ты — пояснительная бригада: помощник, который объясняет мемы, шутки и непонятные сообщения из чата. Рассказывай, в чем юмор, какие культурные отсылки или контекст нужно знать, чтобы понять смысл. Отвечай на русском языке кратко и понятно."

const (
	imagePrompt = "Объясни этот мем или шутку на изображении. Расскажи, в чем юмор, какие культурные отсылки или контекст нужно знать, чтобы понять смысл. Отвечай на русском языке кратко и понятно."
	textPrompt  = "Объясни этот текст, мем или шутку:\n\n%s"
)

// Client defines the Explainer interface used by the bot handlers.
// Both methods degrade remote failures to the Apology string and never
// surface an error.
type Client interface {
	ExplainImage(ctx context.Context, data []byte, mimeType string) string
	ExplainText(ctx context.Context, text string) string
}

type sdkClient struct {
	api         *goopenai.Client
	log         *slog.Logger
	cfg         config.OpenAIConfig
	instruction string
}

// NewClient creates an Explainer from the OpenAI configuration. The
// system instruction is read from cfg.InstructionFile when the file
// exists; otherwise the built-in default applies.
func NewClient(cfg config.OpenAIConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if log == nil {
		log = slog.Default()
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	logger := log.With("component", "openai_client")

	instruction := DefaultInstruction
	if cfg.InstructionFile != "" {
		raw, err := os.ReadFile(cfg.InstructionFile)
		switch {
		case err == nil && strings.TrimSpace(string(raw)) != "":
			instruction = strings.TrimSpace(string(raw))
			logger.Info("Loaded system instruction from file", "path", cfg.InstructionFile)
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read instruction file %s: %w", cfg.InstructionFile, err)
		default:
			logger.Info("Instruction file not found, using built-in default", "path", cfg.InstructionFile)
		}
	}

	logger.Info("OpenAI client initialized", "model", cfg.Model, "base_url", apiCfg.BaseURL)
	return &sdkClient{
		api:         goopenai.NewClientWithConfig(apiCfg),
		log:         logger,
		cfg:         cfg,
		instruction: instruction,
	}, nil
}

// ExplainImage sends image bytes to the model as a base64 data URL and
// returns the explanation, or Apology on any failure.
func (c *sdkClient) ExplainImage(ctx context.Context, data []byte, mimeType string) string {
	if len(data) == 0 {
		c.log.WarnContext(ctx, "ExplainImage called with empty image data")
		return Apology
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	user := goopenai.ChatCompletionMessage{
		Role: goopenai.ChatMessageRoleUser,
		MultiContent: []goopenai.ChatMessagePart{
			{
				Type: goopenai.ChatMessagePartTypeText,
				Text: imagePrompt,
			},
			{
				Type: goopenai.ChatMessagePartTypeImageURL,
				ImageURL: &goopenai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", mimeType, encoded),
				},
			},
		},
	}

	return c.complete(ctx, "image", user)
}

// ExplainText sends a text string to the model and returns the
// explanation, or Apology on any failure.
func (c *sdkClient) ExplainText(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		c.log.WarnContext(ctx, "ExplainText called with empty text")
		return Apology
	}

	user := goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: fmt.Sprintf(textPrompt, text),
	}

	return c.complete(ctx, "text", user)
}

func (c *sdkClient) complete(ctx context.Context, kind string, user goopenai.ChatCompletionMessage) string {
	reqCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req := goopenai.ChatCompletionRequest{
		Model:            c.cfg.Model,
		MaxTokens:        c.cfg.MaxTokens,
		Temperature:      c.cfg.Temperature,
		TopP:             c.cfg.TopP,
		FrequencyPenalty: c.cfg.FrequencyPenalty,
		PresencePenalty:  c.cfg.PresencePenalty,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: c.instruction},
			user,
		},
	}

	resp, err := c.api.CreateChatCompletion(reqCtx, req)
	if err != nil {
		c.log.ErrorContext(ctx, "OpenAI request failed", "kind", kind, "error", err)
		return Apology
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.log.ErrorContext(ctx, "OpenAI returned no content", "kind", kind)
		return Apology
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.log.DebugContext(ctx, "OpenAI request completed", "kind", kind, "answer_len", len(answer))
	return answer
}
