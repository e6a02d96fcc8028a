package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/deepchat/internal/state"
)

// NewSettingsHandler shows the current AI settings with the settings keyboard.
func NewSettingsHandler(deps HandlerDeps) bot.HandlerFunc {
	return settingsHandler{deps}.Handle
}

type settingsHandler struct {
	deps HandlerDeps
}

func (h settingsHandler) summary() string {
	ai := h.deps.Config.AI
	return render(h.deps.Config.Messages.Settings,
		"model", ai.Model,
		"temperature", strconv.FormatFloat(ai.Temperature, 'f', -1, 64),
		"max_tokens", strconv.Itoa(ai.MaxTokens),
	)
}

func (h settingsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.summary(),
		ReplyMarkup: settingsKeyboard(),
	})
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send settings menu", "handler", "settings", "error", err, "chat_id", chatID)
	}
}

// NewSettingsCallbackHandler handles presses on the settings keyboard.
// Tuning is process-wide, so the setting buttons only report the current value.
func NewSettingsCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return settingsCallbackHandler{deps}.Handle
}

type settingsCallbackHandler struct {
	deps HandlerDeps
}

func (h settingsCallbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "settings_callback")

	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	ai := h.deps.Config.AI

	var answer string
	switch cq.Data {
	case CallbackChangeModel:
		answer = fmt.Sprintf("Model: %s", ai.Model)
	case CallbackSetTemp:
		answer = fmt.Sprintf("Temperature: %s", strconv.FormatFloat(ai.Temperature, 'f', -1, 64))
	case CallbackSetMaxTokens:
		answer = fmt.Sprintf("Max tokens: %d", ai.MaxTokens)
	case CallbackMainMenu:
	default:
		log.WarnContext(ctx, "Unknown settings callback", "data", cq.Data)
	}

	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
		Text:            answer,
	}); err != nil {
		log.ErrorContext(ctx, "Failed to answer callback query", "error", err, "callback_query_id", cq.ID)
	}

	if cq.Data != CallbackMainMenu {
		return
	}

	h.deps.Tracker.Set(cq.From.ID, state.MainMenu)

	var chatID int64
	switch {
	case cq.Message.Message != nil:
		chatID = cq.Message.Message.Chat.ID
	case cq.Message.InaccessibleMessage != nil:
		chatID = cq.Message.InaccessibleMessage.Chat.ID
	default:
		chatID = cq.From.ID
	}

	msgs := h.deps.Config.Messages
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        msgs.ChooseFromMenu,
		ReplyMarkup: mainMenuKeyboard(msgs.MenuPlaceholder),
	}); err != nil {
		log.ErrorContext(ctx, "Failed to send main menu", "error", err, "chat_id", chatID)
	}
}
