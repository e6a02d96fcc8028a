package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/deepchat/internal/state"
)

// NewChatModeHandler returns the handler for the smart chat button.
func NewChatModeHandler(deps HandlerDeps) bot.HandlerFunc {
	return chatModeHandler{deps}.Handle
}

type chatModeHandler struct {
	deps HandlerDeps
}

func (h chatModeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "chat_mode")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	h.deps.Tracker.Set(userID, state.ChatMode)
	log.InfoContext(ctx, "Chat mode enabled", "chat_id", chatID, "user_id", userID)

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.deps.Config.Messages.ChatModeEnabled,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: &models.ReplyKeyboardRemove{RemoveKeyboard: true},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send chat mode message", "error", err, "chat_id", chatID)
	}
}

// NewCancelHandler returns the /cancel handler, which leaves chat mode.
func NewCancelHandler(deps HandlerDeps) bot.HandlerFunc {
	return cancelHandler{deps}.Handle
}

type cancelHandler struct {
	deps HandlerDeps
}

func (h cancelHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "cancel")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	previous := h.deps.Tracker.Get(userID)
	h.deps.Tracker.Set(userID, state.MainMenu)
	log.InfoContext(ctx, "Returned to main menu", "chat_id", chatID, "user_id", userID, "previous_state", previous)

	msgs := h.deps.Config.Messages
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        msgs.Cancelled,
		ReplyMarkup: mainMenuKeyboard(msgs.MenuPlaceholder),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send cancel confirmation", "error", err, "chat_id", chatID)
	}
}
