package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for optional configuration parameters.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultOpenAIBaseURL          = "https://api.openai.com/v1"
	DefaultOpenAIModel            = "gpt-4o"
	DefaultOpenAIMaxTokens        = 1000
	DefaultOpenAITemperature      = 0.7
	DefaultOpenAITopP             = 0.95
	DefaultOpenAIFrequencyPenalty = 0.2
	DefaultOpenAIPresencePenalty  = 0.1
	DefaultOpenAITimeout          = 2 * time.Minute
	DefaultOpenAIInstructionFile  = "system_instructions.txt"

	DefaultMTProtoSessionFile = "session.json"

	DefaultExportLimit        = 100
	DefaultExportHistoryLimit = 1000
	DefaultExportMaxImageDim  = 800
	DefaultExportJPEGQuality  = 85

	DefaultGroupsFile = "detected_groups.json"

	DefaultDBPath        = "archive.db"
	DefaultRetentionDays = 90

	// Daily at 04:00, seconds field included.
	DefaultMaintenanceSchedule = "0 0 4 * * *"
)

// DefaultTriggers are the Russian phrases that summon the bot without a
// command. Matching is a case-insensitive substring test.
var DefaultTriggers = []string{
	"можно пояснительную бригаду",
	"мпб",
	"пояснительную бригаду",
	"пояснительная бригада",
	"не понял",
}

// DefaultMessages are the user-visible reply strings.
var DefaultMessages = Messages{
	Welcome: `🤖 Пояснительная бригада готова к работе!

Я помогаю объяснять мемы и шутки на изображениях.

Команды:
/explain - объяснить мем на фото или текст

Триггерные фразы:
• "Можно пояснительную бригаду?"
• "МПБ"
• "пояснительную бригаду"
• "не понял"

Просто напишите одну из фраз и прикрепите фото, или ответьте на сообщение с фото.`,
	ImageNotFound:   "Не найдено изображение или текст для анализа. Прикрепите фото к сообщению или ответьте на сообщение с фото.",
	TriggerNotFound: "Не вижу изображения для пояснения. Прикрепите фото или ответьте на сообщение с фото.",
	Analyzing:       "Анализирую изображение...",
	TriggerAck:      "Пояснительная бригада прибыла! Анализирую...",
	GeneralError:    "Произошла ошибка при обработке запроса.",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("telegram.show_chat_id", false)

	v.SetDefault("openai.base_url", DefaultOpenAIBaseURL)
	v.SetDefault("openai.model", DefaultOpenAIModel)
	v.SetDefault("openai.max_tokens", DefaultOpenAIMaxTokens)
	v.SetDefault("openai.temperature", DefaultOpenAITemperature)
	v.SetDefault("openai.top_p", DefaultOpenAITopP)
	v.SetDefault("openai.frequency_penalty", DefaultOpenAIFrequencyPenalty)
	v.SetDefault("openai.presence_penalty", DefaultOpenAIPresencePenalty)
	v.SetDefault("openai.timeout", DefaultOpenAITimeout)
	v.SetDefault("openai.instruction_file", DefaultOpenAIInstructionFile)

	v.SetDefault("mtproto.session_file", DefaultMTProtoSessionFile)

	v.SetDefault("export.limit", DefaultExportLimit)
	v.SetDefault("export.history_limit", DefaultExportHistoryLimit)
	v.SetDefault("export.max_image_dim", DefaultExportMaxImageDim)
	v.SetDefault("export.jpeg_quality", DefaultExportJPEGQuality)
	v.SetDefault("export.output_dir", ".")

	v.SetDefault("groups.file", DefaultGroupsFile)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.retention_days", DefaultRetentionDays)

	v.SetDefault("scheduler.tasks.archive_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.archive_maintenance.schedule", DefaultMaintenanceSchedule)

	v.SetDefault("triggers", DefaultTriggers)

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.image_not_found", DefaultMessages.ImageNotFound)
	v.SetDefault("messages.trigger_not_found", DefaultMessages.TriggerNotFound)
	v.SetDefault("messages.analyzing", DefaultMessages.Analyzing)
	v.SetDefault("messages.trigger_ack", DefaultMessages.TriggerAck)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
}
