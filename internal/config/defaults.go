package config

import "time"

// Task names known to the scheduler.
const (
	TaskTranscriptRetention = "transcript_retention"
	TaskSQLMaintenance      = "sql_maintenance"
	TaskCacheStats          = "cache_stats"
)

func defaults() map[string]any {
	return map[string]any{
		"logger.level": "info",
		"logger.json":  false,

		"telegram.token":                "",
		"telegram.drop_pending_updates": true,
		"telegram.max_message_length":   4000,

		"ai.api_key":           "",
		"ai.base_url":          "https://api.deepseek.com/v1",
		"ai.model":             "deepseek-chat",
		"ai.temperature":       0.7,
		"ai.max_tokens":        2500,
		"ai.top_p":             0.9,
		"ai.frequency_penalty": 0.2,
		"ai.connect_timeout":   10 * time.Second,
		"ai.timeout":           45 * time.Second,
		"ai.retry.attempts":    3,
		"ai.retry.multiplier":  time.Second,
		"ai.retry.min_wait":    2 * time.Second,
		"ai.retry.max_wait":    10 * time.Second,

		"image.provider": "disabled",
		"image.api_key":  "",
		"image.base_url": "",
		"image.model":    "",
		"image.size":     "512x512",

		"database.path":      "chat.db",
		"database.retention": 30 * 24 * time.Hour,

		"scheduler.tasks": map[string]any{
			TaskTranscriptRetention: map[string]any{"enabled": true, "schedule": "0 0 3 * * *"},
			TaskSQLMaintenance:      map[string]any{"enabled": true, "schedule": "0 30 3 * * 0"},
			TaskCacheStats:          map[string]any{"enabled": true, "schedule": "0 */15 * * * *"},
		},

		"http.listen_addr": "",

		"messages.welcome": "🌟 <b>Hello {name}!</b> 🌟\n\n" +
			"🤖 Welcome to the AI assistant bot!\n\n" +
			"🔹 <u>Main features:</u>\n" +
			"• Smart chat with DeepSeek AI\n" +
			"• Image generation with /image\n" +
			"• Automatic error reporting\n\n" +
			"📌 Please choose from the menu below:",
		"messages.menu_placeholder": "Choose an option...",
		"messages.chat_mode_enabled": "💡 <b>Smart chat mode enabled!</b>\n\n" +
			"• Ask any question\n" +
			"• Send /cancel to return to the menu\n" +
			"• Maximum message length: 4000 characters",
		"messages.choose_from_menu": "Please choose from the main menu:",
		"messages.cancelled":        "🔙 Back to the main menu.",
		"messages.invalid_length":   "⚠️ Messages must be between 1 and 4000 characters.",
		"messages.general_error":    "⚠️ A system error occurred. Please try again later.",
		"messages.bot_info":         "ℹ️ This bot relays your questions to a large language model and can generate images.",
		"messages.tools":            "🛠️ Available tools:\n• /image <description> generates an image\n• /cancel leaves chat mode",
		"messages.help":             "📚 Press \"💬 Smart chat\" and type your question. Use /cancel to stop chatting and /image <description> to draw.",
		"messages.settings":         "⚙️ AI settings are fixed for all users:\nModel: {model}\nTemperature: {temperature}\nMax tokens: {max_tokens}",
		"messages.stats":            "📊 Stats\nCached answers: {cache_entries}\nKnown users: {users}\nStored messages: {messages}",
		"messages.rate_limit":       "⚠️ Too many requests. Please wait a minute and try again.",
		"messages.timeout":          "⏳ The request timed out. Please try again.",
		"messages.system_error":     "⚠️ System error: %s",
		"messages.unexpected":       "⚠️ An unexpected error occurred while processing your request.",
		"messages.image_usage":      "⚠ Please write a description after /image.",
		"messages.image_unavailable": "🖼️ Image generation is not enabled.",
		"messages.image_failed":     "⚠️ Could not generate the image. Please try again later.",
	}
}
