// Package logger builds the application slog.Logger and the update logging
// middleware for the Telegram bot.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/deepchat/internal/metrics"
)

// NewLogger creates a logger writing to stdout and installs it as the slog default.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := newLogger(os.Stdout, levelStr, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(levelStr)}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a config level name to a slog.Level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Middleware logs every incoming update and counts it by type.
// Message text is never logged in full.
func Middleware(log *slog.Logger, m *metrics.Metrics) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()

			updateType, attrs := describeUpdate(update)
			logEntry := log.With("update_id", update.ID, "update_type", updateType).With(attrs...)
			m.IncUpdate(updateType)

			logEntry.InfoContext(ctx, "Processing update")
			next(ctx, b, update)
			logEntry.InfoContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

func describeUpdate(update *models.Update) (string, []any) {
	switch {
	case update.Message != nil:
		msg := update.Message
		attrs := []any{
			"message_id", msg.ID,
			"chat_id", msg.Chat.ID,
			"text_length", len([]rune(msg.Text)),
			"text_preview", truncateString(msg.Text, 50),
		}
		if msg.From != nil {
			attrs = append(attrs, "user_id", msg.From.ID)
		}
		return "message", attrs

	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		attrs := []any{
			"callback_query_id", cq.ID,
			"user_id", cq.From.ID,
			"data", cq.Data,
		}
		switch {
		case cq.Message.Message != nil:
			attrs = append(attrs, "chat_id", cq.Message.Message.Chat.ID, "message_accessible", true)
		case cq.Message.InaccessibleMessage != nil:
			attrs = append(attrs, "chat_id", cq.Message.InaccessibleMessage.Chat.ID, "message_accessible", false)
		}
		return "callback_query", attrs

	default:
		return "other", nil
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
