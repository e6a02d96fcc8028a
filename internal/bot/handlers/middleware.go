// Package handlers contains the Telegram command, menu and message handlers,
// their registration table and middleware.
package handlers

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Recover stops a panicking handler from taking down the update loop and
// tells the user a system error occurred.
func Recover(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				log := deps.Logger.With("middleware", "Recover")
				log.ErrorContext(ctx, "Handler panicked", "panic", fmt.Sprint(r), "update_id", update.ID)

				if update.Message == nil {
					return
				}
				chatID := update.Message.Chat.ID
				if _, err := bot.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: chatID,
					Text:   deps.Config.Messages.GeneralError,
				}); err != nil {
					log.ErrorContext(ctx, "Failed to send system error message", "error", err, "chat_id", chatID)
				}
			}()
			next(ctx, bot, update)
		}
	}
}
