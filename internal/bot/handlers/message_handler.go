package handlers

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/deepchat/internal/database"
	"github.com/edgard/deepchat/internal/state"
)

const transcriptTimeout = 5 * time.Second

// NewMessageHandler returns the default handler for text that matched no
// command or button. In chat mode the text is sent to the gateway; otherwise
// the user is pointed back to the main menu.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	if update.Message == nil || update.Message.From == nil {
		log.DebugContext(ctx, "Ignoring update without message or sender", "update_id", update.ID)
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID
	msgs := h.deps.Config.Messages

	length := utf8.RuneCountInString(msg.Text)
	if length == 0 || length > h.deps.Config.Telegram.MaxMessageLength {
		log.InfoContext(ctx, "Rejected message with invalid length", "chat_id", chatID, "user_id", userID, "length", length)
		h.send(ctx, b, &bot.SendMessageParams{ChatID: chatID, Text: msgs.InvalidLength})
		return
	}

	if _, err := b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping}); err != nil {
		log.WarnContext(ctx, "Failed to send typing action", "error", err, "chat_id", chatID)
	}

	if h.deps.Tracker.Get(userID) != state.ChatMode {
		h.send(ctx, b, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        msgs.ChooseFromMenu,
			ReplyMarkup: mainMenuKeyboard(msgs.MenuPlaceholder),
		})
		return
	}

	h.saveTranscript(ctx, userID, chatID, msg.Text, database.DirectionIn)

	result := h.deps.Gateway.GenerateResponse(ctx, msg.Text)
	if !result.OK() {
		log.WarnContext(ctx, "Gateway returned failure", "chat_id", chatID, "user_id", userID, "kind", result.Failure.Kind)
	}

	reply := truncateRunes(result.Display(), h.deps.Config.Telegram.MaxMessageLength)
	if reply == "" {
		reply = msgs.Unexpected
	}
	if !h.send(ctx, b, &bot.SendMessageParams{ChatID: chatID, Text: reply}) {
		h.send(ctx, b, &bot.SendMessageParams{ChatID: chatID, Text: msgs.GeneralError})
		return
	}

	if result.OK() {
		h.saveTranscript(ctx, userID, chatID, reply, database.DirectionOut)
	}
}

// send reports whether the message was delivered.
func (h messageHandler) send(ctx context.Context, b *bot.Bot, params *bot.SendMessageParams) bool {
	if _, err := b.SendMessage(ctx, params); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send message", "handler", "message", "error", err, "chat_id", params.ChatID)
		return false
	}
	return true
}

// saveTranscript is best-effort: failures are logged and never reach the user.
func (h messageHandler) saveTranscript(ctx context.Context, userID, chatID int64, text string, dir database.Direction) {
	if h.deps.Store == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(ctx, transcriptTimeout)
	defer cancel()

	err := h.deps.Store.SaveMessage(saveCtx, &database.Message{
		UserID:    userID,
		ChatID:    chatID,
		Text:      text,
		Direction: dir,
	})
	if err != nil {
		h.deps.Logger.WarnContext(ctx, "Failed to save transcript line", "error", err, "chat_id", chatID, "direction", dir)
	}
}
