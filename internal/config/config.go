// Package config manages application configuration from default values,
// an optional config.yaml file, and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrConfiguration marks configuration loading or validation failures.
// A command that hits it must exit before serving.
var ErrConfiguration = errors.New("configuration error")

// LogConfig controls log level and output format.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Bot API credentials and reply behavior.
type TelegramConfig struct {
	Token      string `mapstructure:"token" validate:"required"`
	ShowChatID bool   `mapstructure:"show_chat_id"`

	// Filled at runtime after GetMe; not read from config sources.
	BotID       int64  `mapstructure:"-"`
	BotUsername string `mapstructure:"-"`
}

// OpenAIConfig holds the Explainer's credentials and sampling policy.
type OpenAIConfig struct {
	APIKey           string        `mapstructure:"api_key" validate:"required"`
	BaseURL          string        `mapstructure:"base_url" validate:"omitempty,url"`
	Model            string        `mapstructure:"model" validate:"required"`
	MaxTokens        int           `mapstructure:"max_tokens" validate:"min=1"`
	Temperature      float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	TopP             float32       `mapstructure:"top_p" validate:"min=0,max=1"`
	FrequencyPenalty float32       `mapstructure:"frequency_penalty" validate:"min=-2,max=2"`
	PresencePenalty  float32       `mapstructure:"presence_penalty" validate:"min=-2,max=2"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"min=1s,max=10m"`
	InstructionFile  string        `mapstructure:"instruction_file"`
}

// MTProtoConfig holds user-session credentials for the history exporter.
type MTProtoConfig struct {
	APIID       int    `mapstructure:"api_id" validate:"required,gt=0"`
	APIHash     string `mapstructure:"api_hash" validate:"required"`
	Phone       string `mapstructure:"phone" validate:"required"`
	SessionFile string `mapstructure:"session_file" validate:"required"`
}

// ExportConfig controls the chat exporters.
type ExportConfig struct {
	ChatID       int64  `mapstructure:"chat_id" validate:"required"`
	Limit        int    `mapstructure:"limit" validate:"min=1"`
	HistoryLimit int    `mapstructure:"history_limit" validate:"min=1"`
	MaxImageDim  int    `mapstructure:"max_image_dim" validate:"min=1"`
	JPEGQuality  int    `mapstructure:"jpeg_quality" validate:"min=1,max=100"`
	OutputDir    string `mapstructure:"output_dir"`
}

// GroupsConfig controls the group detector's persisted file.
type GroupsConfig struct {
	File string `mapstructure:"file" validate:"required"`
}

// DatabaseConfig controls the bot's message archive.
type DatabaseConfig struct {
	Path          string `mapstructure:"path" validate:"required"`
	RetentionDays int    `mapstructure:"retention_days" validate:"min=1"`
}

// TaskConfig enables one scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// Messages holds every user-visible string the bot sends. Users never see
// raw error text, only these.
type Messages struct {
	Welcome         string `mapstructure:"welcome"`
	ImageNotFound   string `mapstructure:"image_not_found"`
	TriggerNotFound string `mapstructure:"trigger_not_found"`
	Analyzing       string `mapstructure:"analyzing"`
	TriggerAck      string `mapstructure:"trigger_ack"`
	GeneralError    string `mapstructure:"general_error"`
}

// Config defines the configuration for all commands in this repository.
// Each command validates only the sections it uses.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	MTProto   MTProtoConfig   `mapstructure:"mtproto"`
	Export    ExportConfig    `mapstructure:"export"`
	Groups    GroupsConfig    `mapstructure:"groups"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Triggers  []string        `mapstructure:"triggers"`
	Messages  Messages        `mapstructure:"messages"`
}

// Load loads configuration in increasing priority:
// 1. Default values
// 2. config.yaml file (optional)
// 3. Environment variables (.env files honored)
//
// Load performs no validation; commands call the ValidateFor* method
// matching the sections they need.
func Load() (*Config, error) {
	// .env first so viper's env bindings can see its values.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: failed to load .env: %v", ErrConfiguration, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
		// Missing config file is fine, defaults plus env apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// bindLegacyEnv keeps the environment variable names the original shell
// tooling around these bots already exports.
func bindLegacyEnv(v *viper.Viper) {
	// Errors from BindEnv are only possible with zero arguments.
	_ = v.BindEnv("telegram.token", "BOT_TOKEN")
	_ = v.BindEnv("telegram.show_chat_id", "SHOW_CHAT_ID")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("mtproto.api_id", "TELEGRAM_API_ID")
	_ = v.BindEnv("mtproto.api_hash", "TELEGRAM_API_HASH")
	_ = v.BindEnv("mtproto.phone", "TELEGRAM_PHONE")
	_ = v.BindEnv("export.chat_id", "CHAT_ID")
}

func validateSections(sections ...any) error {
	validate := validator.New()
	for _, section := range sections {
		if err := validate.Struct(section); err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}
	return nil
}

// ValidateForBot checks the sections the explainer bot needs.
func (c *Config) ValidateForBot() error {
	return validateSections(c.Log, c.Telegram, c.OpenAI, c.Database)
}

// ValidateForExport checks the sections the Bot API exporter needs.
func (c *Config) ValidateForExport() error {
	return validateSections(c.Log, c.Telegram, c.Export, c.Database)
}

// ValidateForHistoryExport checks the sections the MTProto exporter needs.
func (c *Config) ValidateForHistoryExport() error {
	return validateSections(c.Log, c.MTProto, c.Export)
}

// ValidateForGroupWatch checks the sections the group detector needs.
func (c *Config) ValidateForGroupWatch() error {
	return validateSections(c.Log, c.Telegram, c.Groups)
}
