package handlers

import (
	"context"
	"html"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/deepchat/internal/state"
)

// NewStartHandler returns a handler for /start and /help: it greets the user,
// shows the main menu and resets the user to the main menu state.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID
	user := update.Message.From

	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", user.ID)

	msgs := h.deps.Config.Messages
	welcome := render(msgs.Welcome, "name", html.EscapeString(user.FirstName))
	disabled := true
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:             chatID,
		Text:               welcome,
		ParseMode:          models.ParseModeHTML,
		ReplyMarkup:        mainMenuKeyboard(msgs.MenuPlaceholder),
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: &disabled},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send welcome message", "error", err, "chat_id", chatID)
	}

	h.deps.Tracker.Set(user.ID, state.MainMenu)
}
